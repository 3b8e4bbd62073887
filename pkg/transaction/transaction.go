package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a read-only bank movement. Amount is signed: expenses are negative,
// income and credits are positive.
type Transaction struct {
	Id          int
	AccountId   int
	CategoryId  *int
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}
