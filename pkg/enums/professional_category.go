package enums

import "fmt"

// ProfessionalCategory maps to the professional_category enum in Postgres.
type ProfessionalCategory string

const (
	ProfessionalCategoryVet    ProfessionalCategory = "vet"
	ProfessionalCategoryKennel ProfessionalCategory = "kennel"
)

var validProfessionalCategories = []ProfessionalCategory{
	ProfessionalCategoryVet,
	ProfessionalCategoryKennel,
}

// String implements fmt.Stringer.
func (c ProfessionalCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c ProfessionalCategory) IsValid() bool {
	for _, candidate := range validProfessionalCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// RequiresVerification reports whether profiles of this category need an
// admin-reviewed credential check before they become discoverable.
func (c ProfessionalCategory) RequiresVerification() bool {
	return c == ProfessionalCategoryVet
}

// ParseProfessionalCategory converts raw input into a ProfessionalCategory.
func ParseProfessionalCategory(value string) (ProfessionalCategory, error) {
	for _, candidate := range validProfessionalCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid professional category %q", value)
}
