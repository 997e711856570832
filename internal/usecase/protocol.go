package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// ActionType tags the directive parsed out of one assistant response.
type ActionType string

const (
	ActionNone           ActionType = "NONE"
	ActionAddItem        ActionType = "ADD_ITEM"
	ActionUpdateQuantity ActionType = "UPDATE_QUANTITY"
	ActionRemoveItem     ActionType = "REMOVE_ITEM"
	ActionShowCategory   ActionType = "SHOW_CATEGORY"
	ActionOrderComplete  ActionType = "ORDER_COMPLETE"
)

// CategoryTag is one of the four category-show tokens the model may emit.
type CategoryTag string

const (
	CategoryBurger  CategoryTag = "SHOW_BURGER"
	CategorySide    CategoryTag = "SHOW_SIDE"
	CategoryDrink   CategoryTag = "SHOW_DRINK"
	CategoryDessert CategoryTag = "SHOW_DESSERT"
)

// categoryTags in scan order.
var categoryTags = []CategoryTag{CategoryBurger, CategorySide, CategoryDrink, CategoryDessert}

// CategoryID maps a show token to its fixed catalog category id.
func (t CategoryTag) CategoryID() int {
	switch t {
	case CategoryBurger:
		return 1
	case CategorySide:
		return 2
	case CategoryDrink:
		return 3
	case CategoryDessert:
		return 4
	}
	return 0
}

// Action is the typed result of parsing one assistant response. Exactly one
// directive (or none) is derived per response.
type Action struct {
	Type      ActionType
	ItemID    int
	Quantity  int
	OptionIDs []int
	Category  CategoryTag
}

const orderCompleteToken = "ORDER_COMPLETE"

// Directive patterns, case-sensitive, located anywhere in the response text.
var (
	menuAddPattern    = regexp.MustCompile(`MENU_ADD\|(\d+)\|(\d+)(?:\|([\d,]+))?`)
	menuUpdatePattern = regexp.MustCompile(`MENU_UPDATE\|(\d+)\|(-?\d+)`)
	menuRemovePattern = regexp.MustCompile(`MENU_REMOVE\|(\d+)`)
)

// ParseResponse extracts the highest-priority directive from raw assistant
// text and returns it together with the user-visible remainder. Every
// recognized token pattern is stripped from the display text, not only the
// matched one, so stray partial directives never leak to the user. If
// stripping leaves nothing, the raw text is returned as-is.
func ParseResponse(raw string) (Action, string) {
	action := parseAction(raw)

	display := menuAddPattern.ReplaceAllString(raw, "")
	display = menuUpdatePattern.ReplaceAllString(display, "")
	display = menuRemovePattern.ReplaceAllString(display, "")
	display = strings.ReplaceAll(display, orderCompleteToken, "")
	for _, tag := range categoryTags {
		display = strings.ReplaceAll(display, string(tag), "")
	}
	display = strings.TrimSpace(display)
	if display == "" {
		display = raw
	}
	return action, display
}

// parseAction applies the matchers in priority order; a malformed directive
// counts as no match and falls through to the next matcher.
func parseAction(raw string) Action {
	if a, ok := parseMenuAdd(raw); ok {
		return a
	}
	if a, ok := parseMenuUpdate(raw); ok {
		return a
	}
	if a, ok := parseMenuRemove(raw); ok {
		return a
	}
	if strings.Contains(raw, orderCompleteToken) {
		return Action{Type: ActionOrderComplete}
	}
	for _, tag := range categoryTags {
		if strings.Contains(raw, string(tag)) {
			return Action{Type: ActionShowCategory, Category: tag}
		}
	}
	return Action{Type: ActionNone}
}

func parseMenuAdd(raw string) (Action, bool) {
	m := menuAddPattern.FindStringSubmatch(raw)
	if m == nil {
		return Action{}, false
	}
	itemID, err := strconv.Atoi(m[1])
	if err != nil || itemID <= 0 {
		return Action{}, false
	}
	quantity, err := strconv.Atoi(m[2])
	if err != nil || quantity <= 0 {
		return Action{}, false
	}
	var optionIDs []int
	if m[3] != "" {
		for _, part := range strings.Split(m[3], ",") {
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			optionIDs = append(optionIDs, id)
		}
	}
	return Action{Type: ActionAddItem, ItemID: itemID, Quantity: quantity, OptionIDs: optionIDs}, true
}

func parseMenuUpdate(raw string) (Action, bool) {
	m := menuUpdatePattern.FindStringSubmatch(raw)
	if m == nil {
		return Action{}, false
	}
	itemID, err := strconv.Atoi(m[1])
	if err != nil || itemID <= 0 {
		return Action{}, false
	}
	// Zero and negative quantities parse fine here; the cart reconciler owns
	// the removal policy for non-positive values.
	quantity, err := strconv.Atoi(m[2])
	if err != nil {
		return Action{}, false
	}
	return Action{Type: ActionUpdateQuantity, ItemID: itemID, Quantity: quantity}, true
}

func parseMenuRemove(raw string) (Action, bool) {
	m := menuRemovePattern.FindStringSubmatch(raw)
	if m == nil {
		return Action{}, false
	}
	itemID, err := strconv.Atoi(m[1])
	if err != nil || itemID <= 0 {
		return Action{}, false
	}
	return Action{Type: ActionRemoveItem, ItemID: itemID}, true
}
