package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

const (
	sessionSK  = "STATE"
	sessionTTL = 24 * time.Hour
)

// sessionAPI is the minimal DynamoDB interface required by SessionStore.
type sessionAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// SessionStore persists per-session cart and conversation state. The cart,
// chat log and model turns are stored as JSON documents in string attributes;
// abandoned sessions expire via TTL.
type SessionStore struct {
	api       sessionAPI
	tableName string
}

func NewSessionStore(api sessionAPI, tableName string) (*SessionStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &SessionStore{api: api, tableName: tableName}, nil
}

func sessionPK(sessionID string) string {
	return "SESSION#" + sessionID
}

// Load reads a session state with a consistent read, so a turn served by a
// different Lambda instance always sees the previous turn's writes.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (domain.SessionState, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": strValue(sessionPK(sessionID)),
			"SK": strValue(sessionSK),
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("repository: Load session: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.SessionState{}, fmt.Errorf("repository: session %q: %w", sessionID, domain.ErrNotFound)
	}

	state := domain.SessionState{SessionID: sessionID}
	if err := decodeJSONAttr(out.Item, "cart", &state.Cart); err != nil {
		return domain.SessionState{}, err
	}
	if err := decodeJSONAttr(out.Item, "chatLog", &state.ChatLog); err != nil {
		return domain.SessionState{}, err
	}
	if err := decodeJSONAttr(out.Item, "turns", &state.Turns); err != nil {
		return domain.SessionState{}, err
	}
	return state, nil
}

// Save writes or replaces the session state record.
func (s *SessionStore) Save(ctx context.Context, state domain.SessionState) error {
	if strings.TrimSpace(state.SessionID) == "" {
		return errors.New("repository: Save session: session id is required")
	}

	cart, err := json.Marshal(state.Cart)
	if err != nil {
		return fmt.Errorf("repository: Save session: marshal cart: %w", err)
	}
	chatLog, err := json.Marshal(state.ChatLog)
	if err != nil {
		return fmt.Errorf("repository: Save session: marshal chat log: %w", err)
	}
	turns, err := json.Marshal(state.Turns)
	if err != nil {
		return fmt.Errorf("repository: Save session: marshal turns: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        strValue(sessionPK(state.SessionID)),
			"SK":        strValue(sessionSK),
			"sessionId": strValue(state.SessionID),
			"cart":      strValue(string(cart)),
			"chatLog":   strValue(string(chatLog)),
			"turns":     strValue(string(turns)),
			"updatedAt": strValue(time.Now().UTC().Format(time.RFC3339)),
			"ttl":       numValue(time.Now().Add(sessionTTL).Unix()),
		},
	})
	if err != nil {
		return fmt.Errorf("repository: Save session: %w", err)
	}
	return nil
}

func decodeJSONAttr(item map[string]types.AttributeValue, key string, out any) error {
	raw := optStrAttr(item, key)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("repository: decode attribute %q: %w", key, err)
	}
	return nil
}
