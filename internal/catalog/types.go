package catalog

// Book is the catalog representation of a scraped book. BookID is the
// source-assigned numeric identifier and doubles as the catalog key;
// IsPosted is monotonic false to true.
type Book struct {
	BookID     int    `json:"book_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	AuthorID   int    `json:"author_id"`
	Category   string `json:"category"`
	CategoryID int    `json:"category_id"`
	BookLink   string `json:"book_link"`
	Content    string `json:"content,omitempty"`
	IsPosted   bool   `json:"is_posted"`
}

// Author is the catalog author record. AuthorID is the externally
// sourced stable identifier.
type Author struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	AuthorLink string `json:"author_link"`
}

// User is a catalog user record carrying a publishing token.
type User struct {
	UserID     int    `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Token      string `json:"token"`
	IsVerified bool   `json:"is_verified"`
}

// Category is a catalog taxonomy record.
type Category struct {
	ID           int    `json:"id"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
}
