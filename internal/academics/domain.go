package academics

import "time"

// School is an academic unit, e.g. the School of Medicine.
type School struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Programmes  []Programme
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Programme is a course of study offered by a school.
type Programme struct {
	ID            int64
	SchoolID      int64
	SchoolName    string
	Name          string
	Slug          string
	Level         string
	DurationYears int
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Programme levels.
const (
	LevelCertificate   = "certificate"
	LevelDiploma       = "diploma"
	LevelUndergraduate = "undergraduate"
	LevelPostgraduate  = "postgraduate"
)

// ValidLevel reports whether level is one of the recognised values.
func ValidLevel(level string) bool {
	switch level {
	case LevelCertificate, LevelDiploma, LevelUndergraduate, LevelPostgraduate:
		return true
	}
	return false
}
