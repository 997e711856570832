package domain

// CatalogCategory is one menu category, ordered by DisplayOrder in listings.
type CatalogCategory struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
}

// CatalogItem is one orderable menu item. Prices are integer KRW.
type CatalogItem struct {
	ID          int    `json:"id"`
	CategoryID  int    `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Calories    int    `json:"calories,omitempty"`
	Available   bool   `json:"available"`
}

// CatalogOption is one selectable option within an option group.
type CatalogOption struct {
	ID              int    `json:"id"`
	GroupID         int    `json:"groupId"`
	Name            string `json:"name"`
	PriceAdjustment int64  `json:"priceAdjustment"`
	DisplayOrder    int    `json:"displayOrder"`
}

// OptionGroup is a named group of options attached to an item, e.g. a set of
// drink sizes or extra toppings.
type OptionGroup struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Options []CatalogOption `json:"options"`
}

// ItemDetails is an item together with its resolved option groups.
type ItemDetails struct {
	Item         CatalogItem   `json:"item"`
	OptionGroups []OptionGroup `json:"optionGroups"`
}

// CatalogSnapshot is the read-only catalog view used for prompt composition:
// categories in display order, items grouped under their category id.
type CatalogSnapshot struct {
	Categories []CatalogCategory
	Items      map[int][]CatalogItem
}
