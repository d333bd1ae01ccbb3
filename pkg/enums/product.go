package enums

import "fmt"

// ProductCategory represents the canonical catalog categories sellers can
// list under.
type ProductCategory string

const (
	ProductCategoryAttar        ProductCategory = "attar"
	ProductCategoryPerfume      ProductCategory = "perfume"
	ProductCategoryBodyMist     ProductCategory = "body_mist"
	ProductCategoryEssentialOil ProductCategory = "essential_oil"
	ProductCategoryIncense      ProductCategory = "incense"
	ProductCategoryCandles      ProductCategory = "candles"
	ProductCategoryDiffuser     ProductCategory = "diffuser"
	ProductCategorySoap         ProductCategory = "soap"
	ProductCategoryGiftSet      ProductCategory = "gift_set"
)

var validProductCategories = []ProductCategory{
	ProductCategoryAttar,
	ProductCategoryPerfume,
	ProductCategoryBodyMist,
	ProductCategoryEssentialOil,
	ProductCategoryIncense,
	ProductCategoryCandles,
	ProductCategoryDiffuser,
	ProductCategorySoap,
	ProductCategoryGiftSet,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
