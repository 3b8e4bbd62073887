package user

import "github.com/shopspring/decimal"

type User struct {
	Id       int
	Uid      string
	Username string
	Email    string
	// MonthlyIncome is absent until the user declares an income.
	MonthlyIncome decimal.NullDecimal
	// PaydayDay is the day of month the income arrives, nil when unknown.
	PaydayDay *int
}
