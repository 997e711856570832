package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

const (
	defaultModel    = "gpt-4o"
	defaultGreeting = "안녕하세요! 맥도날드 주문을 도와드리겠습니다. 어떤 메뉴를 원하시나요?"
	checkoutPath    = "/checkout"
)

// ParamGetter resolves deployment parameters (model name, greeting text).
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// SessionStore persists session state between Lambda invocations. Load
// returns domain.ErrNotFound for unknown session ids.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (domain.SessionState, error)
	Save(ctx context.Context, state domain.SessionState) error
}

// OrderStore is the order finalizer boundary: persist the cart, hand back an
// order id, a customer-facing order number and the total.
type OrderStore interface {
	SaveOrder(ctx context.Context, lines []domain.CartLine) (domain.OrderReceipt, error)
}

// session is one customer's isolated conversation, cart and chat log. The
// mutex serializes the whole turn-processing path: a session never has two
// in-flight turns, so the cart snapshot fed into prompt composition cannot
// race a concurrent mutation.
type session struct {
	mu        sync.Mutex
	id        string
	cart      []domain.CartLine
	chatLog   []domain.ChatMessage
	assistant *Assistant
}

// Manager orchestrates sessions: it owns the map of live sessions, dispatches
// parsed actions to the cart reconciler and writes state through to the
// session store after every mutation. Independent sessions proceed
// concurrently; the only shared state is the read-only catalog.
type Manager struct {
	llm         LLMClient
	catalog     CatalogGateway
	reconciler  *CartReconciler
	store       SessionStore
	orders      OrderStore
	params      ParamGetter
	paramPrefix string
	logger      zerolog.Logger

	cacheMu     sync.RWMutex
	cacheLoaded bool
	model       string
	greeting    string

	mu       sync.Mutex
	sessions map[string]*session
}

// SessionView is the caller-facing snapshot of a session.
type SessionView struct {
	SessionID string               `json:"sessionId"`
	Cart      []domain.CartLine    `json:"cart"`
	Total     int64                `json:"total"`
	ChatLog   []domain.ChatMessage `json:"chatLog"`
}

// CartView is the caller-facing snapshot after a direct cart edit.
type CartView struct {
	Cart    []domain.CartLine    `json:"cart"`
	Total   int64                `json:"total"`
	ChatLog []domain.ChatMessage `json:"chatLog"`
}

// TurnResult is the outcome of one processed chat message. Navigation and
// CategoryID are requests to the UI collaborator; the core never performs
// navigation itself.
type TurnResult struct {
	Reply         string               `json:"reply"`
	Cart          []domain.CartLine    `json:"cart"`
	Total         int64                `json:"total"`
	ChatLog       []domain.ChatMessage `json:"chatLog"`
	Navigation    string               `json:"navigation,omitempty"`
	CategoryID    int                  `json:"categoryId,omitempty"`
	CategoryItems []domain.CatalogItem `json:"categoryItems,omitempty"`
}

func NewManager(llm LLMClient, catalog CatalogGateway, store SessionStore, orders OrderStore, params ParamGetter, paramPrefix string, logger zerolog.Logger) (*Manager, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if catalog == nil {
		return nil, errors.New("usecase: catalog gateway must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if orders == nil {
		return nil, errors.New("usecase: order store must not be nil")
	}
	if params == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	reconciler, err := NewCartReconciler(catalog, logger)
	if err != nil {
		return nil, err
	}
	return &Manager{
		llm:         llm,
		catalog:     catalog,
		reconciler:  reconciler,
		store:       store,
		orders:      orders,
		params:      params,
		paramPrefix: paramPrefix,
		logger:      logger,
		sessions:    make(map[string]*session),
	}, nil
}

// StartSession creates a new empty session seeded with the assistant greeting.
func (m *Manager) StartSession(ctx context.Context) (SessionView, error) {
	if err := m.ensureConfig(ctx); err != nil {
		return SessionView{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	id := newSessionID()
	assistant, err := NewAssistant(m.llm, m.catalog, m.model, m.logger, nil)
	if err != nil {
		return SessionView{}, newError(ErrorInternal, "assistant_init_error", err)
	}
	s := &session{
		id:        id,
		chatLog:   []domain.ChatMessage{{Role: domain.RoleAssistant, Content: m.greeting}},
		assistant: assistant,
	}

	// Register only once the first save succeeds; a session whose id the
	// caller never received must not linger in the map.
	if err := m.persist(ctx, s); err != nil {
		return SessionView{}, newError(ErrorPersistence, "session_save_error", err)
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return sessionViewOf(s), nil
}

// SendMessage processes one user message through the dialogue engine and
// dispatches the parsed action. A session with a turn already in flight is
// rejected rather than queued, which keeps the handler stateless and bounded.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if err := m.ensureConfig(ctx); err != nil {
		return TurnResult{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	s, err := m.getSession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if !s.mu.TryLock() {
		return TurnResult{}, newError(ErrorSessionBusy, "turn_in_flight", nil)
	}
	defer s.mu.Unlock()

	out := s.assistant.ProcessMessage(ctx, text, s.cart)

	s.chatLog = append(s.chatLog,
		domain.ChatMessage{Role: domain.RoleUser, Content: text},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: out.DisplayText},
	)

	result := TurnResult{Reply: out.DisplayText}

	// Finite dispatch over the action tags; exactly once per message.
	switch out.Action.Type {
	case ActionAddItem:
		cart, err := m.reconciler.AddItem(ctx, s.cart, out.Action.ItemID, out.Action.Quantity, out.Action.OptionIDs)
		if err != nil {
			// Soft failure: the user still sees the assistant text, the cart
			// simply does not change.
			m.logger.Error().Err(err).Int("item_id", out.Action.ItemID).Msg("add dispatch failed")
		} else {
			s.cart = cart
		}
	case ActionUpdateQuantity:
		s.cart = m.reconciler.UpdateQuantity(s.cart, out.Action.ItemID, out.Action.Quantity)
	case ActionRemoveItem:
		s.cart = m.reconciler.RemoveItem(s.cart, out.Action.ItemID)
	case ActionShowCategory:
		result.CategoryID = out.Action.Category.CategoryID()
		items, err := m.catalog.ListItems(ctx, result.CategoryID)
		if err != nil {
			m.logger.Error().Err(err).Int("category_id", result.CategoryID).Msg("category load failed")
		} else {
			result.CategoryItems = items
		}
	case ActionOrderComplete:
		result.Navigation = checkoutPath
	case ActionNone:
		// display text only
	}

	if err := m.persist(ctx, s); err != nil {
		// The turn already happened; degraded durability is logged, not fatal.
		m.logger.Error().Err(err).Str("session_id", s.id).Msg("session save failed")
	}

	result.Cart = cloneCart(s.cart)
	result.Total = domain.CartTotal(s.cart)
	result.ChatLog = cloneLog(s.chatLog)
	return result, nil
}

// AddToCart is the direct UI selection path: one unit, no options, announced
// in the chat log.
func (m *Manager) AddToCart(ctx context.Context, sessionID string, itemID int) (CartView, error) {
	s, err := m.getSession(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := m.reconciler.AddItem(ctx, s.cart, itemID, 1, nil)
	if err != nil {
		return CartView{}, newError(ErrorCatalogUnavailable, "catalog_error", err)
	}
	idx := indexOfItem(cart, itemID)
	if idx < 0 {
		return CartView{}, newError(ErrorInvalidInput, "unknown_item", nil)
	}
	s.cart = cart
	s.chatLog = append(s.chatLog, domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: fmt.Sprintf("%s을(를) 장바구니에 추가했습니다.", cart[idx].Name),
	})

	if err := m.persist(ctx, s); err != nil {
		m.logger.Error().Err(err).Str("session_id", s.id).Msg("session save failed")
	}
	return cartViewOf(s), nil
}

// RemoveFromCart removes the line at the given position and announces it.
func (m *Manager) RemoveFromCart(ctx context.Context, sessionID string, index int) (CartView, error) {
	s, err := m.getSession(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.cart) {
		return CartView{}, newError(ErrorInvalidInput, "index_out_of_range", nil)
	}
	name := s.cart[index].Name
	s.cart = removeAt(s.cart, index)
	s.chatLog = append(s.chatLog, domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: fmt.Sprintf("장바구니에서 %s을(를) 제거했습니다.", name),
	})

	if err := m.persist(ctx, s); err != nil {
		m.logger.Error().Err(err).Str("session_id", s.id).Msg("session save failed")
	}
	return cartViewOf(s), nil
}

// ChangeQuantity sets the quantity of the line at the given position. A
// non-positive quantity removes the line; quantities below one never persist.
func (m *Manager) ChangeQuantity(ctx context.Context, sessionID string, index, quantity int) (CartView, error) {
	s, err := m.getSession(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.cart) {
		return CartView{}, newError(ErrorInvalidInput, "index_out_of_range", nil)
	}
	if quantity <= 0 {
		s.cart = removeAt(s.cart, index)
	} else {
		cart := cloneCart(s.cart)
		cart[index].Quantity = quantity
		s.cart = cart
	}

	if err := m.persist(ctx, s); err != nil {
		m.logger.Error().Err(err).Str("session_id", s.id).Msg("session save failed")
	}
	return cartViewOf(s), nil
}

// CompleteOrder persists the cart as an order. On failure the cart is left
// intact so the user can retry; on success it is emptied.
func (m *Manager) CompleteOrder(ctx context.Context, sessionID string) (domain.OrderReceipt, error) {
	s, err := m.getSession(ctx, sessionID)
	if err != nil {
		return domain.OrderReceipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		return domain.OrderReceipt{}, newError(ErrorInvalidInput, "empty_cart", nil)
	}

	receipt, err := m.orders.SaveOrder(ctx, s.cart)
	if err != nil {
		return domain.OrderReceipt{}, newError(ErrorPersistence, "order_save_error", err)
	}

	s.cart = nil
	if err := m.persist(ctx, s); err != nil {
		m.logger.Error().Err(err).Str("session_id", s.id).Msg("session save failed")
	}
	return receipt, nil
}

// ClearCart empties the cart and resets the conversation history.
func (m *Manager) ClearCart(ctx context.Context, sessionID string) (CartView, error) {
	s, err := m.getSession(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = nil
	s.assistant.Reset()

	if err := m.persist(ctx, s); err != nil {
		m.logger.Error().Err(err).Str("session_id", s.id).Msg("session save failed")
	}
	return cartViewOf(s), nil
}

// ListCategories returns the menu categories in display order.
func (m *Manager) ListCategories(ctx context.Context) ([]domain.CatalogCategory, error) {
	categories, err := m.catalog.ListCategories(ctx)
	if err != nil {
		return nil, newError(ErrorCatalogUnavailable, "catalog_error", err)
	}
	return categories, nil
}

// ListItems returns the available items of one category.
func (m *Manager) ListItems(ctx context.Context, categoryID int) ([]domain.CatalogItem, error) {
	items, err := m.catalog.ListItems(ctx, categoryID)
	if err != nil {
		return nil, newError(ErrorCatalogUnavailable, "catalog_error", err)
	}
	return items, nil
}

// SearchMenu finds available items whose name or description matches query.
// When a session id is given, the hits are relayed into that session's
// conversation so the model can refer to them on later turns.
func (m *Manager) SearchMenu(ctx context.Context, sessionID, query string) ([]domain.CatalogItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(ErrorInvalidInput, "empty_query", nil)
	}
	items, err := m.catalog.Search(ctx, query)
	if err != nil {
		return nil, newError(ErrorCatalogUnavailable, "catalog_error", err)
	}

	if strings.TrimSpace(sessionID) != "" {
		s, err := m.getSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		content := s.assistant.NoteSearchResults(query, items)
		s.chatLog = append(s.chatLog, domain.ChatMessage{Role: domain.RoleAssistant, Content: content})
		if err := m.persist(ctx, s); err != nil {
			m.logger.Error().Err(err).Str("session_id", s.id).Msg("session save failed")
		}
		s.mu.Unlock()
	}
	return items, nil
}

// getSession returns the live session, falling back to the store when this
// process has not seen the id yet (a different Lambda instance may have
// served the previous turn).
func (m *Manager) getSession(ctx context.Context, sessionID string) (*session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newError(ErrorInvalidInput, "empty_session_id", nil)
	}

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	if err := m.ensureConfig(ctx); err != nil {
		return nil, newError(ErrorInternal, "ssm_load_error", err)
	}

	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newError(ErrorSessionNotFound, "unknown_session", nil)
		}
		return nil, newError(ErrorPersistence, "session_load_error", err)
	}

	assistant, err := NewAssistant(m.llm, m.catalog, m.model, m.logger, state.Turns)
	if err != nil {
		return nil, newError(ErrorInternal, "assistant_init_error", err)
	}
	s = &session{
		id:        sessionID,
		cart:      state.Cart,
		chatLog:   state.ChatLog,
		assistant: assistant,
	}

	m.mu.Lock()
	// Another request may have hydrated the session concurrently; keep the
	// first one so per-session locking stays meaningful.
	if existing, ok := m.sessions[sessionID]; ok {
		s = existing
	} else {
		m.sessions[sessionID] = s
	}
	m.mu.Unlock()
	return s, nil
}

// persist writes the session state through to the store. Callers hold the
// session lock.
func (m *Manager) persist(ctx context.Context, s *session) error {
	return m.store.Save(ctx, domain.SessionState{
		SessionID: s.id,
		Cart:      s.cart,
		ChatLog:   s.chatLog,
		Turns:     s.assistant.History(),
	})
}

// ensureConfig lazily loads the deployment parameters once per process.
func (m *Manager) ensureConfig(ctx context.Context) error {
	m.cacheMu.RLock()
	if m.cacheLoaded {
		m.cacheMu.RUnlock()
		return nil
	}
	m.cacheMu.RUnlock()

	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	if m.cacheLoaded {
		return nil
	}

	model, err := m.params.GetParameter(ctx, m.paramPrefix+"/config/openai_model")
	if err != nil {
		return fmt.Errorf("usecase: load openai model: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	greeting, err := m.params.GetParameter(ctx, m.paramPrefix+"/greeting")
	if err != nil {
		return fmt.Errorf("usecase: load greeting: %w", err)
	}
	if strings.TrimSpace(greeting) == "" {
		greeting = defaultGreeting
	}

	m.model = model
	m.greeting = greeting
	m.cacheLoaded = true
	return nil
}

func sessionViewOf(s *session) SessionView {
	return SessionView{
		SessionID: s.id,
		Cart:      cloneCart(s.cart),
		Total:     domain.CartTotal(s.cart),
		ChatLog:   cloneLog(s.chatLog),
	}
}

func cartViewOf(s *session) CartView {
	return CartView{
		Cart:    cloneCart(s.cart),
		Total:   domain.CartTotal(s.cart),
		ChatLog: cloneLog(s.chatLog),
	}
}

func cloneLog(log []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out
}

var newSessionID = func() string {
	return uuid.NewString()
}
