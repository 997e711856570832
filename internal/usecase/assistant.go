package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

// Fallback texts shown when a turn cannot be completed. The conversation
// history is left untouched in every such case.
const (
	apologyText    = "죄송합니다. 요청을 처리하는 중에 오류가 발생했습니다."
	moderationText = "죄송합니다. 해당 요청에는 응답해 드릴 수 없습니다."
)

// LLMClient is the opaque model invocation: role-tagged turns in, one text
// blob out. No streaming, no function calling — the directive protocol lives
// entirely in literal text.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
	Moderate(ctx context.Context, input string) (bool, error)
}

// Assistant is the dialogue engine for one session. It owns the non-system
// conversation history; the system turn is recomposed from the current cart
// and catalog on every call rather than stored, so at most one system turn is
// ever live and it is always first.
type Assistant struct {
	llm     LLMClient
	catalog CatalogGateway
	model   string
	logger  zerolog.Logger

	turns []domain.ChatMessage // user/assistant only, in order
}

// TurnOutput is the engine's result for one processed message. It is always
// well formed: failures degrade to an apology with no action.
type TurnOutput struct {
	DisplayText string
	Action      Action
}

func NewAssistant(llm LLMClient, catalog CatalogGateway, model string, logger zerolog.Logger, history []domain.ChatMessage) (*Assistant, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if catalog == nil {
		return nil, errors.New("usecase: catalog gateway must not be nil")
	}
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	a := &Assistant{llm: llm, catalog: catalog, model: model, logger: logger}
	a.turns = append(a.turns, history...)
	return a, nil
}

// History returns a copy of the non-system turns for persistence.
func (a *Assistant) History() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(a.turns))
	copy(out, a.turns)
	return out
}

// Reset clears the conversation history.
func (a *Assistant) Reset() {
	a.turns = nil
}

// NoteSearchResults records a menu search run from the UI as an assistant
// turn, so the model can refer to the hits on later turns. Returns the
// rendered text.
func (a *Assistant) NoteSearchResults(query string, items []domain.CatalogItem) string {
	content := fmt.Sprintf("'%s' 검색 결과입니다.\n%s", query, formatSearchResults(items))
	a.turns = append(a.turns, domain.ChatMessage{Role: domain.RoleAssistant, Content: content})
	return content
}

// ProcessMessage runs one conversational turn: compose a fresh system prompt
// from the cart and catalog, screen the input, invoke the model, record the
// exchange and parse the directive out of the raw response. No error escapes
// this method — any failure yields an apology with ActionNone and the history
// exactly as it was before the call.
func (a *Assistant) ProcessMessage(ctx context.Context, userText string, cart []domain.CartLine) TurnOutput {
	snapshot, err := LoadCatalogSnapshot(ctx, a.catalog)
	if err != nil {
		a.logger.Error().Err(err).Msg("catalog unavailable, degrading turn")
		return TurnOutput{DisplayText: apologyText, Action: Action{Type: ActionNone}}
	}

	flagged, err := a.llm.Moderate(ctx, userText)
	if err != nil {
		a.logger.Error().Err(err).Msg("moderation failed, degrading turn")
		return TurnOutput{DisplayText: apologyText, Action: Action{Type: ActionNone}}
	}
	if flagged {
		a.logger.Warn().Msg("user message flagged by moderation")
		return TurnOutput{DisplayText: moderationText, Action: Action{Type: ActionNone}}
	}

	system := domain.ChatMessage{Role: domain.RoleSystem, Content: buildSystemPrompt(cart, snapshot)}
	user := domain.ChatMessage{Role: domain.RoleUser, Content: userText}

	messages := make([]domain.ChatMessage, 0, len(a.turns)+2)
	messages = append(messages, system)
	messages = append(messages, a.turns...)
	messages = append(messages, user)

	raw, err := a.llm.Chat(ctx, a.model, messages)
	if err != nil {
		a.logger.Error().Err(err).Msg("model call failed, degrading turn")
		return TurnOutput{DisplayText: apologyText, Action: Action{Type: ActionNone}}
	}
	if strings.TrimSpace(raw) == "" {
		a.logger.Error().Msg("empty model response, degrading turn")
		return TurnOutput{DisplayText: apologyText, Action: Action{Type: ActionNone}}
	}

	a.turns = append(a.turns, user, domain.ChatMessage{Role: domain.RoleAssistant, Content: raw})

	action, display := ParseResponse(raw)
	return TurnOutput{DisplayText: display, Action: action}
}

// LoadCatalogSnapshot assembles the prompt-side catalog view: categories in
// display order with their available items.
func LoadCatalogSnapshot(ctx context.Context, catalog CatalogGateway) (domain.CatalogSnapshot, error) {
	categories, err := catalog.ListCategories(ctx)
	if err != nil {
		return domain.CatalogSnapshot{}, err
	}
	items := make(map[int][]domain.CatalogItem, len(categories))
	for _, cat := range categories {
		list, err := catalog.ListItems(ctx, cat.ID)
		if err != nil {
			return domain.CatalogSnapshot{}, err
		}
		items[cat.ID] = list
	}
	return domain.CatalogSnapshot{Categories: categories, Items: items}, nil
}
