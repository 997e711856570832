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
	"github.com/google/uuid"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

const (
	counterPK       = "COUNTER"
	counterSK       = "ORDER_NUMBER"
	orderMetaSK     = "META"
	orderStatusInit = "pending"
)

// orderAPI is the minimal DynamoDB interface required by OrderStore.
type orderAPI interface {
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// OrderStore persists finalized carts. The order header and every line are
// written in one transaction; the customer-facing order number comes from an
// atomic counter so it stays a short sequence.
type OrderStore struct {
	api       orderAPI
	tableName string
}

func NewOrderStore(api orderAPI, tableName string) (*OrderStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &OrderStore{api: api, tableName: tableName}, nil
}

func orderPK(orderID string) string {
	return "ORDER#" + orderID
}

// SaveOrder writes the cart as a pending order and returns the receipt. A
// failed write leaves nothing behind — the transaction either commits the
// header plus all lines or none of them.
func (s *OrderStore) SaveOrder(ctx context.Context, lines []domain.CartLine) (domain.OrderReceipt, error) {
	if len(lines) == 0 {
		return domain.OrderReceipt{}, errors.New("repository: SaveOrder: no lines")
	}

	orderNumber, err := s.nextOrderNumber(ctx)
	if err != nil {
		return domain.OrderReceipt{}, err
	}

	orderID := newOrderID()
	total := domain.CartTotal(lines)
	now := time.Now().UTC().Format(time.RFC3339)

	items := make([]types.TransactWriteItem, 0, len(lines)+1)
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.tableName),
			Item: map[string]types.AttributeValue{
				"PK":          strValue(orderPK(orderID)),
				"SK":          strValue(orderMetaSK),
				"orderId":     strValue(orderID),
				"orderNumber": numValue(int64(orderNumber)),
				"totalAmount": numValue(total),
				"status":      strValue(orderStatusInit),
				"createdAt":   strValue(now),
			},
			ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
		},
	})

	for i, line := range lines {
		options, err := json.Marshal(line.Options)
		if err != nil {
			return domain.OrderReceipt{}, fmt.Errorf("repository: SaveOrder: marshal options: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item: map[string]types.AttributeValue{
					"PK":        strValue(orderPK(orderID)),
					"SK":        strValue(fmt.Sprintf("LINE#%03d", i+1)),
					"itemId":    numValue(int64(line.ItemID)),
					"name":      strValue(line.Name),
					"unitPrice": numValue(line.UnitPrice),
					"quantity":  numValue(int64(line.Quantity)),
					"lineTotal": numValue(line.LineTotal()),
					"options":   strValue(string(options)),
				},
			},
		})
	}

	if _, err := s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("repository: SaveOrder: %w", err)
	}

	return domain.OrderReceipt{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		TotalAmount: total,
	}, nil
}

// nextOrderNumber increments the shared counter atomically and returns the
// new value.
func (s *OrderStore) nextOrderNumber(ctx context.Context) (int, error) {
	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": strValue(counterPK),
			"SK": strValue(counterSK),
		},
		UpdateExpression: aws.String("ADD orderNumber :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": numValue(1),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("repository: next order number: %w", err)
	}
	if out == nil {
		return 0, errors.New("repository: next order number: empty response")
	}
	n, err := intAttr(out.Attributes, "orderNumber")
	if err != nil {
		return 0, fmt.Errorf("repository: next order number: %w", err)
	}
	return n, nil
}

var newOrderID = func() string {
	return uuid.NewString()
}
