package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

// CatalogGateway is the read-only menu access the core depends on. The
// DynamoDB implementation lives in internal/repository; lookups for unknown
// ids fail with domain.ErrNotFound.
type CatalogGateway interface {
	ListCategories(ctx context.Context) ([]domain.CatalogCategory, error)
	ListItems(ctx context.Context, categoryID int) ([]domain.CatalogItem, error)
	GetItemDetails(ctx context.Context, itemID int) (domain.ItemDetails, error)
	Search(ctx context.Context, query string) ([]domain.CatalogItem, error)
}

// CartReconciler applies parsed directives to cart state under the merge
// identity rule (item id plus sorted option id set). All methods return a new
// slice; the input cart is never mutated in place.
type CartReconciler struct {
	catalog CatalogGateway
	logger  zerolog.Logger
}

func NewCartReconciler(catalog CatalogGateway, logger zerolog.Logger) (*CartReconciler, error) {
	if catalog == nil {
		return nil, errors.New("usecase: catalog gateway must not be nil")
	}
	return &CartReconciler{catalog: catalog, logger: logger}, nil
}

// AddItem resolves the item and its options against the catalog and merges
// the result into the cart. An unknown item id is a no-op with a warning: the
// model may reference ids that are stale by one turn. Unknown option ids are
// skipped the same way. Catalog transport failures are returned to the caller.
func (r *CartReconciler) AddItem(ctx context.Context, cart []domain.CartLine, itemID, quantity int, optionIDs []int) ([]domain.CartLine, error) {
	if quantity <= 0 {
		r.logger.Warn().Int("item_id", itemID).Int("quantity", quantity).Msg("add ignored: non-positive quantity")
		return cart, nil
	}

	details, err := r.catalog.GetItemDetails(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn().Int("item_id", itemID).Msg("add ignored: unknown item id")
			return cart, nil
		}
		return cart, fmt.Errorf("usecase: add item %d: %w", itemID, err)
	}

	options := resolveOptions(details, optionIDs, r.logger)
	line := domain.CartLine{
		ItemID:    itemID,
		Name:      details.Item.Name,
		UnitPrice: details.Item.Price,
		Quantity:  quantity,
		Options:   options,
	}

	out := cloneCart(cart)
	for i := range out {
		if out[i].SameIdentity(line) {
			out[i].Quantity += quantity
			return out, nil
		}
	}
	return append(out, line), nil
}

// UpdateQuantity finds the first line with the given item id and sets its
// quantity. Options are not disambiguated here; the conversational interface
// refers to items by id alone. A non-positive quantity removes the line — a
// quantity below one never persists. An unknown id is a no-op with a warning.
func (r *CartReconciler) UpdateQuantity(cart []domain.CartLine, itemID, quantity int) []domain.CartLine {
	idx := indexOfItem(cart, itemID)
	if idx < 0 {
		r.logger.Warn().Int("item_id", itemID).Msg("update ignored: item not in cart")
		return cart
	}
	if quantity <= 0 {
		return removeAt(cart, idx)
	}
	out := cloneCart(cart)
	out[idx].Quantity = quantity
	return out
}

// RemoveItem removes the first line with the given item id. An unknown id is
// a no-op with a warning.
func (r *CartReconciler) RemoveItem(cart []domain.CartLine, itemID int) []domain.CartLine {
	idx := indexOfItem(cart, itemID)
	if idx < 0 {
		r.logger.Warn().Int("item_id", itemID).Msg("remove ignored: item not in cart")
		return cart
	}
	return removeAt(cart, idx)
}

// resolveOptions collects the catalog options matching the requested ids,
// preserving group and display order. Ids that match nothing are skipped.
func resolveOptions(details domain.ItemDetails, optionIDs []int, logger zerolog.Logger) []domain.CartOption {
	if len(optionIDs) == 0 {
		return nil
	}
	requested := make(map[int]bool, len(optionIDs))
	for _, id := range optionIDs {
		requested[id] = true
	}

	var options []domain.CartOption
	for _, group := range details.OptionGroups {
		for _, opt := range group.Options {
			if requested[opt.ID] {
				options = append(options, domain.CartOption{
					ID:              opt.ID,
					Name:            opt.Name,
					PriceAdjustment: opt.PriceAdjustment,
				})
				delete(requested, opt.ID)
			}
		}
	}
	for id := range requested {
		logger.Warn().Int("item_id", details.Item.ID).Int("option_id", id).Msg("option ignored: unknown option id")
	}
	return options
}

func indexOfItem(cart []domain.CartLine, itemID int) int {
	for i := range cart {
		if cart[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func cloneCart(cart []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(cart))
	copy(out, cart)
	return out
}

func removeAt(cart []domain.CartLine, idx int) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(cart)-1)
	out = append(out, cart[:idx]...)
	return append(out, cart[idx+1:]...)
}
