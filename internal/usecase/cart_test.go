package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

func mustReconciler(t *testing.T, catalog CatalogGateway) *CartReconciler {
	t.Helper()
	r, err := NewCartReconciler(catalog, testLogger())
	require.NoError(t, err)
	return r
}

func TestAddItem_NewLine(t *testing.T) {
	r := mustReconciler(t, menuCatalog())

	cart, err := r.AddItem(context.Background(), nil, 1, 2, nil)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, domain.CartLine{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 2}, cart[0])
}

func TestAddItem_MergesSameIdentity(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	ctx := context.Background()

	cart, err := r.AddItem(ctx, nil, 1, 1, nil)
	require.NoError(t, err)
	cart, err = r.AddItem(ctx, cart, 1, 2, nil)
	require.NoError(t, err)

	require.Len(t, cart, 1, "same identity must merge, never duplicate")
	require.Equal(t, 3, cart[0].Quantity)
}

func TestAddItem_MergeRespectsOptionIdentity(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	ctx := context.Background()

	cart, err := r.AddItem(ctx, nil, 1, 1, nil)
	require.NoError(t, err)
	cart, err = r.AddItem(ctx, cart, 1, 1, []int{2})
	require.NoError(t, err)

	// Different option sets are different lines.
	require.Len(t, cart, 2)
	require.Empty(t, cart[0].Options)
	require.Equal(t, []domain.CartOption{{ID: 2, Name: "치즈 추가", PriceAdjustment: 500}}, cart[1].Options)

	// Option id order does not matter for identity.
	cart, err = r.AddItem(ctx, cart, 1, 1, []int{3, 2})
	require.NoError(t, err)
	cart, err = r.AddItem(ctx, cart, 1, 1, []int{2, 3})
	require.NoError(t, err)
	require.Len(t, cart, 3)
	require.Equal(t, 2, cart[2].Quantity)
}

func TestAddItem_PreservesLineOrder(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	ctx := context.Background()

	cart, err := r.AddItem(ctx, nil, 1, 1, nil)
	require.NoError(t, err)
	cart, err = r.AddItem(ctx, cart, 10, 1, nil)
	require.NoError(t, err)
	cart, err = r.AddItem(ctx, cart, 6, 1, nil)
	require.NoError(t, err)
	cart, err = r.AddItem(ctx, cart, 10, 1, nil)
	require.NoError(t, err)

	require.Equal(t, []int{1, 10, 6}, []int{cart[0].ItemID, cart[1].ItemID, cart[2].ItemID})
	require.Equal(t, 2, cart[1].Quantity)
}

func TestAddItem_UnknownItemIsNoOp(t *testing.T) {
	r := mustReconciler(t, menuCatalog())

	cart, err := r.AddItem(context.Background(), nil, 999, 1, nil)
	require.NoError(t, err)
	require.Empty(t, cart)
}

func TestAddItem_UnknownOptionIsSkipped(t *testing.T) {
	r := mustReconciler(t, menuCatalog())

	cart, err := r.AddItem(context.Background(), nil, 1, 1, []int{2, 999})
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, []domain.CartOption{{ID: 2, Name: "치즈 추가", PriceAdjustment: 500}}, cart[0].Options)
}

func TestAddItem_CatalogErrorIsReturned(t *testing.T) {
	boom := errors.New("dynamodb unavailable")
	r := mustReconciler(t, &fakeCatalog{err: boom})

	existing := []domain.CartLine{{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 1}}
	cart, err := r.AddItem(context.Background(), existing, 1, 1, nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, existing, cart, "cart must be unchanged on transport failure")
}

func TestAddItem_DoesNotMutateInput(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	existing := []domain.CartLine{{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 1}}

	_, err := r.AddItem(context.Background(), existing, 1, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 1, existing[0].Quantity)
}

func TestUpdateQuantity_SetsQuantity(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	cart := []domain.CartLine{{ItemID: 10, Name: "코카콜라", UnitPrice: 2000, Quantity: 2}}

	out := r.UpdateQuantity(cart, 10, 5)
	require.Equal(t, 5, out[0].Quantity)
	require.Equal(t, 2, cart[0].Quantity, "input cart must not be mutated")
}

func TestUpdateQuantity_NonPositiveRemovesLine(t *testing.T) {
	r := mustReconciler(t, menuCatalog())

	for _, quantity := range []int{0, -1} {
		cart := []domain.CartLine{{ItemID: 10, Name: "코카콜라", UnitPrice: 2000, Quantity: 2}}
		out := r.UpdateQuantity(cart, 10, quantity)
		require.Empty(t, out, "quantity=%d must remove the line", quantity)
	}
}

func TestUpdateQuantity_UnknownItemIsNoOp(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	cart := []domain.CartLine{{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 1}}

	out := r.UpdateQuantity(cart, 999, 3)
	require.Equal(t, cart, out)
}

func TestUpdateQuantity_MatchesFirstLineByItemID(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	cart := []domain.CartLine{
		{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 1},
		{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 1, Options: []domain.CartOption{{ID: 2, Name: "치즈 추가", PriceAdjustment: 500}}},
	}

	out := r.UpdateQuantity(cart, 1, 4)
	require.Equal(t, 4, out[0].Quantity)
	require.Equal(t, 1, out[1].Quantity)
}

func TestRemoveItem_RemovesFirstMatch(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	cart := []domain.CartLine{
		{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 1},
		{ItemID: 10, Name: "코카콜라", UnitPrice: 2000, Quantity: 1},
	}

	out := r.RemoveItem(cart, 1)
	require.Len(t, out, 1)
	require.Equal(t, 10, out[0].ItemID)
}

func TestRemoveItem_UnknownItemIsNoOp(t *testing.T) {
	r := mustReconciler(t, menuCatalog())
	cart := []domain.CartLine{
		{ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 1},
		{ItemID: 10, Name: "코카콜라", UnitPrice: 2000, Quantity: 1},
	}

	out := r.RemoveItem(cart, 999)
	require.Equal(t, cart, out, "same lines, same order")
}

func TestCartTotal_DerivedFromLines(t *testing.T) {
	cart := []domain.CartLine{
		{ItemID: 1, UnitPrice: 5500, Quantity: 2, Options: []domain.CartOption{{ID: 2, PriceAdjustment: 500}}},
		{ItemID: 10, UnitPrice: 2000, Quantity: 3},
	}
	// 2*(5500+500) + 3*2000
	require.Equal(t, int64(18000), domain.CartTotal(cart))
	require.Equal(t, int64(12000), cart[0].LineTotal())
}
