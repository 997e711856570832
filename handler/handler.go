package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
	"github.com/spaceman8888/mcdonald-order-app/internal/usecase"
)

// Operation names accepted in the request envelope.
const (
	opStartSession   = "start_session"
	opSendMessage    = "send_message"
	opAddToCart      = "add_to_cart"
	opRemoveFromCart = "remove_from_cart"
	opChangeQuantity = "change_quantity"
	opClearCart      = "clear_cart"
	opCompleteOrder  = "complete_order"
	opListCategories = "list_categories"
	opListItems      = "list_items"
	opSearchMenu     = "search_menu"
)

// OrderService is the session orchestrator surface the handler depends on.
type OrderService interface {
	StartSession(ctx context.Context) (usecase.SessionView, error)
	SendMessage(ctx context.Context, sessionID, text string) (usecase.TurnResult, error)
	AddToCart(ctx context.Context, sessionID string, itemID int) (usecase.CartView, error)
	RemoveFromCart(ctx context.Context, sessionID string, index int) (usecase.CartView, error)
	ChangeQuantity(ctx context.Context, sessionID string, index, quantity int) (usecase.CartView, error)
	ClearCart(ctx context.Context, sessionID string) (usecase.CartView, error)
	CompleteOrder(ctx context.Context, sessionID string) (domain.OrderReceipt, error)
	ListCategories(ctx context.Context) ([]domain.CatalogCategory, error)
	ListItems(ctx context.Context, categoryID int) ([]domain.CatalogItem, error)
	SearchMenu(ctx context.Context, sessionID, query string) ([]domain.CatalogItem, error)
}

// request is the JSON envelope carried in the API Gateway body. Fields beyond
// Op are read per operation.
type request struct {
	Op         string `json:"op"`
	SessionID  string `json:"sessionId,omitempty"`
	Message    string `json:"message,omitempty"`
	ItemID     int    `json:"itemId,omitempty"`
	Index      *int   `json:"index,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	CategoryID int    `json:"categoryId,omitempty"`
	Query      string `json:"query,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type itemsResponse struct {
	Items []domain.CatalogItem `json:"items"`
}

type categoriesResponse struct {
	Categories []domain.CatalogCategory `json:"categories"`
}

// Handler adapts API Gateway events to the order service.
type Handler struct {
	service OrderService
}

func NewHandler(service OrderService) (*Handler, error) {
	if service == nil {
		return nil, errors.New("handler: service must not be nil")
	}
	return &Handler{service: service}, nil
}

// Handle decodes the envelope, dispatches by op and encodes the result.
// Usecase errors map onto HTTP statuses; everything unexpected is a 500.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := correlationIDFrom(event.Headers)

	var req request
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "malformed_body"}, correlationID), nil
	}

	out, err := h.dispatch(ctx, req)
	if err != nil {
		status, code, reason := mapError(err)
		return jsonResponse(status, errorResponse{Error: code, Reason: reason}, correlationID), nil
	}
	return jsonResponse(http.StatusOK, out, correlationID), nil
}

func (h *Handler) dispatch(ctx context.Context, req request) (any, error) {
	switch req.Op {
	case opStartSession:
		return h.service.StartSession(ctx)
	case opSendMessage:
		return h.service.SendMessage(ctx, req.SessionID, req.Message)
	case opAddToCart:
		return h.service.AddToCart(ctx, req.SessionID, req.ItemID)
	case opRemoveFromCart:
		if req.Index == nil {
			return nil, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_index"}
		}
		return h.service.RemoveFromCart(ctx, req.SessionID, *req.Index)
	case opChangeQuantity:
		if req.Index == nil {
			return nil, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_index"}
		}
		return h.service.ChangeQuantity(ctx, req.SessionID, *req.Index, req.Quantity)
	case opClearCart:
		return h.service.ClearCart(ctx, req.SessionID)
	case opCompleteOrder:
		return h.service.CompleteOrder(ctx, req.SessionID)
	case opListCategories:
		categories, err := h.service.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		return categoriesResponse{Categories: categories}, nil
	case opListItems:
		items, err := h.service.ListItems(ctx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		return itemsResponse{Items: items}, nil
	case opSearchMenu:
		items, err := h.service.SearchMenu(ctx, req.SessionID, req.Query)
		if err != nil {
			return nil, err
		}
		return itemsResponse{Items: items}, nil
	default:
		return nil, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "unknown_op"}
	}
}

func mapError(err error) (status int, code, reason string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, string(usecase.ErrorInternal), ""
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, string(ucErr.Code), ucErr.Reason
	case usecase.ErrorSessionNotFound:
		return http.StatusNotFound, string(ucErr.Code), ucErr.Reason
	case usecase.ErrorSessionBusy:
		return http.StatusConflict, string(ucErr.Code), ucErr.Reason
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, string(ucErr.Code), ucErr.Reason
	case usecase.ErrorCatalogUnavailable, usecase.ErrorPersistence:
		return http.StatusBadGateway, string(ucErr.Code), ucErr.Reason
	default:
		return http.StatusInternalServerError, string(ucErr.Code), ucErr.Reason
	}
}

func jsonResponse(status int, body any, correlationID string) events.APIGatewayProxyResponse {
	encoded, err := json.Marshal(body)
	if err != nil {
		encoded = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": correlationID,
		},
		Body: string(encoded),
	}
}

// correlationIDFrom returns the caller-provided correlation id header
// (case-insensitive) or generates one.
func correlationIDFrom(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-correlation-id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
