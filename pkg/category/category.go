package category

// Category belongs to the shared catalog; it is referenced by budgets, bills and transactions
// but owned by no user.
type Category struct {
	Id   int
	Name string
}
