package repository

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo scripts DynamoDB responses. Queries are replayed in order so
// multi-query flows (item meta, group links, group options) can be exercised.
type fakeDynamo struct {
	getOut *dynamodb.GetItemOutput
	getErr error

	putErr error

	queryOuts []*dynamodb.QueryOutput
	queryErr  error

	scanOut *dynamodb.ScanOutput
	scanErr error

	updateOut *dynamodb.UpdateItemOutput
	updateErr error

	txErr error

	lastGetInput    *dynamodb.GetItemInput
	lastPutInput    *dynamodb.PutItemInput
	queryInputs     []*dynamodb.QueryInput
	lastScanInput   *dynamodb.ScanInput
	lastUpdateInput *dynamodb.UpdateItemInput
	lastTxInput     *dynamodb.TransactWriteItemsInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryInputs = append(f.queryInputs, in)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if len(f.queryOuts) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	out := f.queryOuts[0]
	f.queryOuts = f.queryOuts[1:]
	return out, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.lastScanInput = in
	return f.scanOut, f.scanErr
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdateInput = in
	return f.updateOut, f.updateErr
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTxInput = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

func strMember(v string) *types.AttributeValueMemberS {
	return &types.AttributeValueMemberS{Value: v}
}

func numMember(v string) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: v}
}

func boolMember(v bool) *types.AttributeValueMemberBOOL {
	return &types.AttributeValueMemberBOOL{Value: v}
}

func makeItemRecord(id, categoryID int, name string, price int64, available bool) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         strMember(itemPK(id)),
		"SK":         strMember(itemMetaSK),
		"id":         numMember(strconv.Itoa(id)),
		"categoryId": numMember(strconv.Itoa(categoryID)),
		"name":       strMember(name),
		"price":      numMember(strconv.FormatInt(price, 10)),
		"available":  boolMember(available),
	}
}
