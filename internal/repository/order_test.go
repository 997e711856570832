package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

func mustNewOrderStore(t *testing.T, db *fakeDynamo) *OrderStore {
	t.Helper()
	s, err := NewOrderStore(db, "order-table")
	require.NoError(t, err)
	return s
}

func withOrderID(t *testing.T, id string) {
	t.Helper()
	orig := newOrderID
	newOrderID = func() string { return id }
	t.Cleanup(func() { newOrderID = orig })
}

func counterOut(n string) *dynamodb.UpdateItemOutput {
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"orderNumber": numMember(n),
	}}
}

func orderLines() []domain.CartLine {
	return []domain.CartLine{
		{
			ItemID: 1, Name: "빅맥", UnitPrice: 5500, Quantity: 2,
			Options: []domain.CartOption{{ID: 2, Name: "치즈 추가", PriceAdjustment: 500}},
		},
		{ItemID: 10, Name: "코카콜라", UnitPrice: 2000, Quantity: 1},
	}
}

func TestSaveOrder_HeaderAndLinesInOneTransaction(t *testing.T) {
	withOrderID(t, "order-1")
	db := &fakeDynamo{updateOut: counterOut("42")}
	s := mustNewOrderStore(t, db)
	lines := orderLines()

	receipt, err := s.SaveOrder(context.Background(), lines)
	require.NoError(t, err)
	require.Equal(t, "order-1", receipt.OrderID)
	require.Equal(t, 42, receipt.OrderNumber)
	require.Equal(t, domain.CartTotal(lines), receipt.TotalAmount)

	// Counter bump targets the shared counter record.
	require.Equal(t, strValue(counterPK), db.lastUpdateInput.Key["PK"])
	require.Equal(t, strValue(counterSK), db.lastUpdateInput.Key["SK"])
	require.Equal(t, types.ReturnValueUpdatedNew, db.lastUpdateInput.ReturnValues)

	tx := db.lastTxInput
	require.NotNil(t, tx)
	require.Len(t, tx.TransactItems, 3)

	header := tx.TransactItems[0].Put
	require.Equal(t, "order-table", aws.ToString(header.TableName))
	require.Equal(t, strValue(orderPK("order-1")), header.Item["PK"])
	require.Equal(t, strValue(orderMetaSK), header.Item["SK"])
	require.Equal(t, numValue(42), header.Item["orderNumber"])
	require.Equal(t, strValue(orderStatusInit), header.Item["status"])
	require.NotNil(t, header.ConditionExpression)

	first := tx.TransactItems[1].Put.Item
	require.Equal(t, strValue("LINE#001"), first["SK"])
	require.Equal(t, numValue(2), first["quantity"])
	require.Equal(t, numValue(12000), first["lineTotal"])

	second := tx.TransactItems[2].Put.Item
	require.Equal(t, strValue("LINE#002"), second["SK"])
	require.Equal(t, numValue(2000), second["lineTotal"])
}

func TestSaveOrder_EmptyCart(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewOrderStore(t, db)

	_, err := s.SaveOrder(context.Background(), nil)
	require.Error(t, err)
	require.Nil(t, db.lastUpdateInput, "counter must not move for an empty cart")
}

func TestSaveOrder_CounterError(t *testing.T) {
	db := &fakeDynamo{updateErr: errors.New("boom")}
	s := mustNewOrderStore(t, db)

	_, err := s.SaveOrder(context.Background(), orderLines())
	require.Error(t, err)
	require.Contains(t, err.Error(), "next order number")
	require.Nil(t, db.lastTxInput)
}

func TestSaveOrder_TransactionError(t *testing.T) {
	withOrderID(t, "order-1")
	db := &fakeDynamo{updateOut: counterOut("7"), txErr: errors.New("boom")}
	s := mustNewOrderStore(t, db)

	_, err := s.SaveOrder(context.Background(), orderLines())
	require.Error(t, err)
	require.Contains(t, err.Error(), "SaveOrder")
}

func TestNextOrderNumber_MalformedCounter(t *testing.T) {
	db := &fakeDynamo{updateOut: &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"orderNumber": strMember("bad"),
	}}}
	s := mustNewOrderStore(t, db)

	_, err := s.SaveOrder(context.Background(), orderLines())
	require.Error(t, err)
	require.Contains(t, err.Error(), "next order number")
}
