package shared

// Finance permissions declared for the catalog.
const (
	PermTransactionsView    = "transactions.view"
	PermTransactionsViewOwn = "transactions.view_own"
	PermTransactionsCreate  = "transactions.create"
)

// FinanceScopes lists all permissions related to financial transactions.
func FinanceScopes() []string {
	return []string{
		PermTransactionsView,
		PermTransactionsViewOwn,
		PermTransactionsCreate,
	}
}
