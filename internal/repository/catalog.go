package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

// Single-table catalog layout:
//
//	PK "CATEGORY"        SK "CAT#<order>#<id>"  — one record per category
//	PK "ITEM#<id>"       SK "META"              — item attributes
//	PK "ITEM#<id>"       SK "OPTGRP#<groupId>"  — link to an option group
//	PK "OPTGRP#<groupId>" SK "OPT#<order>#<id>" — one record per option
//
// Items additionally project into the category-index GSI keyed on categoryId
// so ListItems queries stay cheap.
const (
	categoryPK        = "CATEGORY"
	itemMetaSK        = "META"
	optGroupSKPrefix  = "OPTGRP#"
	optionSKPrefix    = "OPT#"
	categoryIndexName = "category-index"
)

// catalogAPI is the minimal DynamoDB interface required by CatalogStore.
type catalogAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// CatalogStore is the read-only menu gateway backed by a DynamoDB table.
type CatalogStore struct {
	api       catalogAPI
	tableName string
}

func NewCatalogStore(api catalogAPI, tableName string) (*CatalogStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &CatalogStore{api: api, tableName: tableName}, nil
}

func itemPK(itemID int) string {
	return fmt.Sprintf("ITEM#%d", itemID)
}

func optGroupPK(groupID int) string {
	return fmt.Sprintf("OPTGRP#%d", groupID)
}

// ListCategories returns all categories. The sort key embeds the display
// order, so the natural query order is the display order.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]domain.CatalogCategory, error) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": strValue(categoryPK),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListCategories query: %w", err)
	}

	categories := make([]domain.CatalogCategory, 0, len(out.Items))
	for _, item := range out.Items {
		cat, err := itemToCategory(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListCategories decode: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

// ListItems returns the available items of one category via the category GSI.
func (s *CatalogStore) ListItems(ctx context.Context, categoryID int) ([]domain.CatalogItem, error) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(categoryIndexName),
		KeyConditionExpression: aws.String("categoryId = :c"),
		FilterExpression:       aws.String("available = :avail"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":     numValue(int64(categoryID)),
			":avail": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListItems query: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(out.Items))
	for _, raw := range out.Items {
		it, err := itemToCatalogItem(raw)
		if err != nil {
			return nil, fmt.Errorf("repository: ListItems decode: %w", err)
		}
		items = append(items, it)
	}
	return items, nil
}

// GetItemDetails returns one item with its resolved option groups, or
// domain.ErrNotFound for an id with no record.
func (s *CatalogStore) GetItemDetails(ctx context.Context, itemID int) (domain.ItemDetails, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": strValue(itemPK(itemID)),
			"SK": strValue(itemMetaSK),
		},
	})
	if err != nil {
		return domain.ItemDetails{}, fmt.Errorf("repository: GetItemDetails get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.ItemDetails{}, fmt.Errorf("repository: item %d: %w", itemID, domain.ErrNotFound)
	}

	item, err := itemToCatalogItem(out.Item)
	if err != nil {
		return domain.ItemDetails{}, fmt.Errorf("repository: GetItemDetails decode: %w", err)
	}

	groups, err := s.optionGroups(ctx, itemID)
	if err != nil {
		return domain.ItemDetails{}, err
	}
	return domain.ItemDetails{Item: item, OptionGroups: groups}, nil
}

// Search scans available item records whose lowercased name or description
// contains the query.
func (s *CatalogStore) Search(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("SK = :meta AND available = :avail AND (contains(nameLower, :q) OR contains(descriptionLower, :q))"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":meta":  strValue(itemMetaSK),
			":avail": &types.AttributeValueMemberBOOL{Value: true},
			":q":     strValue(q),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Search scan: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(out.Items))
	for _, raw := range out.Items {
		it, err := itemToCatalogItem(raw)
		if err != nil {
			return nil, fmt.Errorf("repository: Search decode: %w", err)
		}
		items = append(items, it)
	}
	return items, nil
}

// optionGroups loads the item's group links, then each group's options in
// display order.
func (s *CatalogStore) optionGroups(ctx context.Context, itemID int) ([]domain.OptionGroup, error) {
	links, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     strValue(itemPK(itemID)),
			":prefix": strValue(optGroupSKPrefix),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: option group links query: %w", err)
	}

	groups := make([]domain.OptionGroup, 0, len(links.Items))
	for _, link := range links.Items {
		groupID, err := intAttr(link, "groupId")
		if err != nil {
			return nil, fmt.Errorf("repository: option group link decode: %w", err)
		}
		group := domain.OptionGroup{ID: groupID, Name: optStrAttr(link, "name")}

		opts, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     strValue(optGroupPK(groupID)),
				":prefix": strValue(optionSKPrefix),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("repository: options query for group %d: %w", groupID, err)
		}
		for _, raw := range opts.Items {
			opt, err := itemToOption(raw)
			if err != nil {
				return nil, fmt.Errorf("repository: option decode: %w", err)
			}
			group.Options = append(group.Options, opt)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func itemToCategory(item map[string]types.AttributeValue) (domain.CatalogCategory, error) {
	id, err := intAttr(item, "id")
	if err != nil {
		return domain.CatalogCategory{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.CatalogCategory{}, err
	}
	return domain.CatalogCategory{
		ID:           id,
		Name:         name,
		Description:  optStrAttr(item, "description"),
		DisplayOrder: optIntAttr(item, "displayOrder"),
	}, nil
}

func itemToCatalogItem(item map[string]types.AttributeValue) (domain.CatalogItem, error) {
	id, err := intAttr(item, "id")
	if err != nil {
		return domain.CatalogItem{}, err
	}
	categoryID, err := intAttr(item, "categoryId")
	if err != nil {
		return domain.CatalogItem{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.CatalogItem{}, err
	}
	price, err := int64Attr(item, "price")
	if err != nil {
		return domain.CatalogItem{}, err
	}
	available, err := boolAttr(item, "available")
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return domain.CatalogItem{
		ID:          id,
		CategoryID:  categoryID,
		Name:        name,
		Description: optStrAttr(item, "description"),
		Price:       price,
		Calories:    optIntAttr(item, "calories"),
		Available:   available,
	}, nil
}

func itemToOption(item map[string]types.AttributeValue) (domain.CatalogOption, error) {
	id, err := intAttr(item, "id")
	if err != nil {
		return domain.CatalogOption{}, err
	}
	groupID, err := intAttr(item, "groupId")
	if err != nil {
		return domain.CatalogOption{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.CatalogOption{}, err
	}
	adj, err := int64Attr(item, "priceAdjustment")
	if err != nil {
		return domain.CatalogOption{}, err
	}
	return domain.CatalogOption{
		ID:              id,
		GroupID:         groupID,
		Name:            name,
		PriceAdjustment: adj,
		DisplayOrder:    optIntAttr(item, "displayOrder"),
	}, nil
}
