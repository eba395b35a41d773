package domain

// BookStock is the catalog entry the ledger arbitrates. Quantity is the
// number of copies still available for reservation and is never negative.
type BookStock struct {
	ID       string `json:"id"`
	Title    string `json:"name"`
	Quantity int    `json:"quantity"`
}
