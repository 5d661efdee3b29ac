package facilities

import "time"

// Facility is a campus facility shown on the public site, e.g. the
// university teaching hospital or the library.
type Facility struct {
	ID          int64
	Name        string
	Slug        string
	Summary     string
	Description string
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
