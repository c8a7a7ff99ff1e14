package models

// TaxonomyKind enumerates the levels of the registration hierarchy that can
// be toggled active or inactive.
type TaxonomyKind string

const (
	TaxonomyKindBranch   TaxonomyKind = "branch"
	TaxonomyKindYear     TaxonomyKind = "year"
	TaxonomyKindSemester TaxonomyKind = "semester"
)

// Branch is a study programme (CSE, ECE, ...) users register under.
type Branch struct {
	ID        string `db:"id" json:"id"`
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	IsActive  bool   `db:"is_active" json:"is_active"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

// AcademicYear is one year level of the programme (1-4).
type AcademicYear struct {
	ID        string `db:"id" json:"id"`
	Number    int    `db:"number" json:"number"`
	IsActive  bool   `db:"is_active" json:"is_active"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

// Semester is one term within a year (1-8 across the programme).
type Semester struct {
	ID         string `db:"id" json:"id"`
	Number     int    `db:"number" json:"number"`
	YearNumber int    `db:"year_number" json:"year_number"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	SortOrder  int    `db:"sort_order" json:"sort_order"`
}

// TaxonomySnapshot is the point-in-time active set served to registration
// flows and clients. The only writer is the admin activation toggle, so a
// cached snapshot invalidated on toggle is exact.
type TaxonomySnapshot struct {
	Branches  []Branch       `json:"branches"`
	Years     []AcademicYear `json:"years"`
	Semesters []Semester     `json:"semesters"`
}
