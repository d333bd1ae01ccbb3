package enums

import "fmt"

// VariationCategory groups product variations such as color or size.
type VariationCategory string

const (
	VariationCategoryColor VariationCategory = "color"
	VariationCategorySize  VariationCategory = "size"
)

var validVariationCategories = []VariationCategory{
	VariationCategoryColor,
	VariationCategorySize,
}

// String implements fmt.Stringer.
func (v VariationCategory) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VariationCategory.
func (v VariationCategory) IsValid() bool {
	for _, candidate := range validVariationCategories {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVariationCategory converts raw input into a VariationCategory.
func ParseVariationCategory(value string) (VariationCategory, error) {
	for _, candidate := range validVariationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variation category %q", value)
}
