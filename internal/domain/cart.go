package domain

import "sort"

// CartOption is one selected option on a cart line, carrying the price
// adjustment it contributes to the line's unit price.
type CartOption struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	PriceAdjustment int64  `json:"priceAdjustment"`
}

// CartLine is one entry in the order in progress. UnitPrice is the catalog
// base price; option adjustments are kept separate so the effective price is
// always derived, never stored.
type CartLine struct {
	ItemID    int          `json:"itemId"`
	Name      string       `json:"name"`
	UnitPrice int64        `json:"unitPrice"`
	Quantity  int          `json:"quantity"`
	Options   []CartOption `json:"options"`
}

// EffectiveUnitPrice is the base price plus every option adjustment.
func (l CartLine) EffectiveUnitPrice() int64 {
	price := l.UnitPrice
	for _, opt := range l.Options {
		price += opt.PriceAdjustment
	}
	return price
}

// LineTotal is the effective unit price multiplied by the quantity.
func (l CartLine) LineTotal() int64 {
	return l.EffectiveUnitPrice() * int64(l.Quantity)
}

// OptionIDs returns the line's option ids sorted ascending. Two lines with
// the same item id and the same sorted option id set are the same line for
// merge purposes.
func (l CartLine) OptionIDs() []int {
	ids := make([]int, 0, len(l.Options))
	for _, opt := range l.Options {
		ids = append(ids, opt.ID)
	}
	sort.Ints(ids)
	return ids
}

// SameIdentity reports whether two lines must be merged rather than coexist.
func (l CartLine) SameIdentity(other CartLine) bool {
	if l.ItemID != other.ItemID {
		return false
	}
	a, b := l.OptionIDs(), other.OptionIDs()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CartTotal recomputes the grand total from the lines. Totals are never
// tracked as separate mutable state.
func CartTotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}
