package cqrs

// ---------- User queries ----------

// SearchUsersQuery matches users by first or last name substring.
type SearchUsersQuery struct {
	Filter string
}

// ---------- Account queries ----------

// GetBalanceQuery reads the committed balance of an account.
// AccountNumber comes from the caller's verified identity, resolved by the
// transport layer.
type GetBalanceQuery struct {
	AccountNumber string
}

// ListTransfersQuery fetches an account's transfer history.
type ListTransfersQuery struct {
	AccountNumber string
}
