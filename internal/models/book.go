package models

// Book is a catalogue title with a fixed number of physical copies.
type Book struct {
	ID              int64  `db:"id" json:"id"`
	Title           string `db:"title" json:"title" validate:"required,max=200"`
	Author          string `db:"author" json:"author" validate:"required,max=200"`
	TotalCopies     int    `db:"total_copies" json:"total_copies" validate:"gte=0"`
	AvailableCopies int    `db:"available_copies" json:"available_copies" validate:"gte=0"`
}

// Available reports whether at least one copy can be lent.
func (b Book) Available() bool {
	return b.AvailableCopies > 0
}

// BookFilter narrows book listings.
type BookFilter struct {
	ListParams
	Author        string
	AvailableOnly bool
}

// BookInput is the create/update payload for books.
type BookInput struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	TotalCopies     *int    `json:"total_copies"`
	AvailableCopies *int    `json:"available_copies"`
}
