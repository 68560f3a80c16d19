package enums

import "fmt"

// ItemCategory classifies the goods a sender ships.
type ItemCategory string

const (
	ItemCategoryFood        ItemCategory = "FOOD"
	ItemCategoryDocument    ItemCategory = "DOCUMENT"
	ItemCategoryElectronics ItemCategory = "ELECTRONICS"
	ItemCategoryFashion     ItemCategory = "FASHION"
	ItemCategoryGrocery     ItemCategory = "GROCERY"
	ItemCategoryMedicine    ItemCategory = "MEDICINE"
	ItemCategoryOther       ItemCategory = "OTHER"
)

var validItemCategories = []ItemCategory{
	ItemCategoryFood,
	ItemCategoryDocument,
	ItemCategoryElectronics,
	ItemCategoryFashion,
	ItemCategoryGrocery,
	ItemCategoryMedicine,
	ItemCategoryOther,
}

// AllItemCategories returns the catalog in display order.
func AllItemCategories() []ItemCategory {
	out := make([]ItemCategory, len(validItemCategories))
	copy(out, validItemCategories)
	return out
}

// String implements fmt.Stringer.
func (c ItemCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ItemCategory.
func (c ItemCategory) IsValid() bool {
	for _, candidate := range validItemCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseItemCategory converts raw input into an ItemCategory.
func ParseItemCategory(value string) (ItemCategory, error) {
	for _, candidate := range validItemCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item category %q", value)
}
