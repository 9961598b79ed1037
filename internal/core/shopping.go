package core

// ShoppingCategories lists the fixed sections of the shopping list, in display order.
var ShoppingCategories = []ShoppingCategory{Groceries, GeneralItems}

func (c ShoppingCategory) Valid() bool {
	for _, v := range ShoppingCategories {
		if c == v {
			return true
		}
	}
	return false
}

func (c ShoppingCategory) Label() string {
	switch c {
	case Groceries:
		return "Alimentos"
	case GeneralItems:
		return "Itens Gerais"
	default:
		return string(c)
	}
}

// NormalizeShoppingCategory maps unknown or empty input to GeneralItems.
func NormalizeShoppingCategory(s string) ShoppingCategory {
	c := ShoppingCategory(s)
	if !c.Valid() {
		return GeneralItems
	}
	return c
}

// ShoppingSection is one category block of the shopping list.
type ShoppingSection struct {
	Category ShoppingCategory
	Items    []ShoppingItem
}

// GroupShoppingItems splits items by category following ShoppingCategories order.
// Empty sections are omitted; items with an unexpected category land in GeneralItems.
func GroupShoppingItems(items []ShoppingItem) []ShoppingSection {
	grouped := make(map[ShoppingCategory][]ShoppingItem, len(ShoppingCategories))
	for _, it := range items {
		c := it.Category
		if !c.Valid() {
			c = GeneralItems
		}
		grouped[c] = append(grouped[c], it)
	}

	var out []ShoppingSection
	for _, c := range ShoppingCategories {
		if len(grouped[c]) == 0 {
			continue
		}
		out = append(out, ShoppingSection{Category: c, Items: grouped[c]})
	}
	return out
}
