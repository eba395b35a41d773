package domain

type UnknownBookError struct {
	BookID string
}

func (e UnknownBookError) Error() string {
	return "not existing book: " + e.BookID
}

type InsufficientStockError struct {
	BookID string
}

func (e InsufficientStockError) Error() string {
	return "not enough stock for book: " + e.BookID
}
