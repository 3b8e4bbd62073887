package account

type Account struct {
	Id     int
	UserId int
	Name   string
}

// Ids extracts the identifiers used to scope transaction queries.
func Ids(accounts []Account) []int {
	ids := make([]int, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.Id)
	}
	return ids
}
