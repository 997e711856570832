package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

// fakeCatalog serves a fixed menu keyed by item id.
type fakeCatalog struct {
	categories []domain.CatalogCategory
	items      map[int][]domain.CatalogItem
	details    map[int]domain.ItemDetails
	searchHits []domain.CatalogItem
	err        error

	detailCalls []int
	listCalls   []int
}

func (f *fakeCatalog) ListCategories(_ context.Context) ([]domain.CatalogCategory, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *fakeCatalog) ListItems(_ context.Context, categoryID int) ([]domain.CatalogItem, error) {
	f.listCalls = append(f.listCalls, categoryID)
	if f.err != nil {
		return nil, f.err
	}
	return f.items[categoryID], nil
}

func (f *fakeCatalog) GetItemDetails(_ context.Context, itemID int) (domain.ItemDetails, error) {
	f.detailCalls = append(f.detailCalls, itemID)
	if f.err != nil {
		return domain.ItemDetails{}, f.err
	}
	d, ok := f.details[itemID]
	if !ok {
		return domain.ItemDetails{}, fmt.Errorf("item %d: %w", itemID, domain.ErrNotFound)
	}
	return d, nil
}

func (f *fakeCatalog) Search(_ context.Context, _ string) ([]domain.CatalogItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchHits, nil
}

// menuCatalog is a small fixed menu shared across tests.
func menuCatalog() *fakeCatalog {
	bigMac := domain.CatalogItem{ID: 1, CategoryID: 1, Name: "빅맥", Price: 5500, Available: true}
	fries := domain.CatalogItem{ID: 6, CategoryID: 2, Name: "후렌치 후라이", Price: 2500, Available: true}
	cola := domain.CatalogItem{ID: 10, CategoryID: 3, Name: "코카콜라", Price: 2000, Available: true}

	return &fakeCatalog{
		categories: []domain.CatalogCategory{
			{ID: 1, Name: "버거", DisplayOrder: 1},
			{ID: 2, Name: "사이드", DisplayOrder: 2},
			{ID: 3, Name: "음료", DisplayOrder: 3},
		},
		items: map[int][]domain.CatalogItem{
			1: {bigMac},
			2: {fries},
			3: {cola},
		},
		details: map[int]domain.ItemDetails{
			1: {
				Item: bigMac,
				OptionGroups: []domain.OptionGroup{
					{
						ID: 1, Name: "토핑",
						Options: []domain.CatalogOption{
							{ID: 2, GroupID: 1, Name: "치즈 추가", PriceAdjustment: 500},
							{ID: 3, GroupID: 1, Name: "베이컨 추가", PriceAdjustment: 700},
						},
					},
				},
			},
			6:  {Item: fries},
			10: {Item: cola},
		},
	}
}

// fakeLLM replays scripted chat responses in order and records the messages
// of the last call.
type fakeLLM struct {
	responses []string
	chatErr   error
	flagged   bool
	modErr    error

	calls    int
	captured []domain.ChatMessage
}

func (f *fakeLLM) Chat(_ context.Context, _ string, messages []domain.ChatMessage) (string, error) {
	f.captured = messages
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if len(f.responses) == 0 {
		return "", errors.New("no llm response configured")
	}
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	return f.responses[idx], nil
}

func (f *fakeLLM) Moderate(_ context.Context, _ string) (bool, error) {
	return f.flagged, f.modErr
}

// fakeSessionStore keeps states in memory.
type fakeSessionStore struct {
	states  map[string]domain.SessionState
	loadErr error
	saveErr error
	saves   int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{states: map[string]domain.SessionState{}}
}

func (f *fakeSessionStore) Load(_ context.Context, sessionID string) (domain.SessionState, error) {
	if f.loadErr != nil {
		return domain.SessionState{}, f.loadErr
	}
	state, ok := f.states[sessionID]
	if !ok {
		return domain.SessionState{}, fmt.Errorf("session %q: %w", sessionID, domain.ErrNotFound)
	}
	return state, nil
}

func (f *fakeSessionStore) Save(_ context.Context, state domain.SessionState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.states[state.SessionID] = state
	return nil
}

// fakeOrderStore records the last saved lines.
type fakeOrderStore struct {
	receipt domain.OrderReceipt
	err     error
	saved   []domain.CartLine
}

func (f *fakeOrderStore) SaveOrder(_ context.Context, lines []domain.CartLine) (domain.OrderReceipt, error) {
	if f.err != nil {
		return domain.OrderReceipt{}, f.err
	}
	f.saved = lines
	return f.receipt, nil
}

// fakeParams resolves parameters from a map.
type fakeParams struct {
	vals map[string]string
	err  error
}

func (f *fakeParams) GetParameter(_ context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.vals[name]
	if !ok {
		return "", fmt.Errorf("param not found: %s", name)
	}
	return v, nil
}

func defaultParams() *fakeParams {
	return &fakeParams{vals: map[string]string{
		"/order-assistant/config/openai_model": "gpt-4o",
		"/order-assistant/greeting":            "안녕하세요! 무엇을 도와드릴까요?",
	}}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
