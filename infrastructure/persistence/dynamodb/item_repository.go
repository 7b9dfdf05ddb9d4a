package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

type itemRecord struct {
	PK          string    `dynamodbav:"PK"`
	SK          string    `dynamodbav:"SK"`
	GSI1PK      string    `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK      string    `dynamodbav:"GSI1SK,omitempty"`
	EntityType  string    `dynamodbav:"EntityType"`
	ItemID      string    `dynamodbav:"itemId"`
	UserID      string    `dynamodbav:"userId"`
	TeamID      string    `dynamodbav:"teamId,omitempty"`
	Message     string    `dynamodbav:"message"`
	AccessLevel string    `dynamodbav:"accessLevel"`
	CreatedBy   string    `dynamodbav:"createdBy"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
	UpdatedAt   time.Time `dynamodbav:"updatedAt"`
}

func toItemRecord(item *entities.Item) itemRecord {
	rec := itemRecord{
		PK:          BuildUserPK(item.UserID()),
		SK:          BuildItemSK(item.ID().String()),
		EntityType:  entityItem,
		ItemID:      item.ID().String(),
		UserID:      item.UserID(),
		TeamID:      item.TeamID(),
		Message:     item.Message(),
		AccessLevel: item.AccessLevel().String(),
		CreatedBy:   item.CreatedBy(),
		CreatedAt:   item.CreatedAt(),
		UpdatedAt:   item.UpdatedAt(),
	}
	// only TEAM items are projected into the team index
	if item.AccessLevel().IsTeam() && item.TeamID() != "" {
		rec.GSI1PK = BuildTeamPK(item.TeamID())
		rec.GSI1SK = rec.SK
	}
	return rec
}

func (r itemRecord) toEntity() (*entities.Item, error) {
	id, err := valueobjects.NewItemIDFromString(r.ItemID)
	if err != nil {
		return nil, fmt.Errorf("stored item %q: %w", r.SK, err)
	}
	level, err := valueobjects.ParseAccessLevel(r.AccessLevel)
	if err != nil {
		// records written before access levels existed
		level = valueobjects.AccessIndividual
	}
	return entities.ReconstructItem(id, r.UserID, r.Message, level, r.TeamID, r.CreatedBy, r.CreatedAt, r.UpdatedAt)
}

// ItemRepository implements ports.ItemRepository
type ItemRepository struct {
	table
	logger *zap.Logger
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(client API, cfg Config, collector *observability.Collector, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{table: newTable(client, cfg, collector), logger: logger}
}

// Create writes the item unless its key is already taken
func (r *ItemRepository) Create(ctx context.Context, item *entities.Item) (err error) {
	defer r.observe("item_create", time.Now(), &err)

	av, err := attributevalue.MarshalMap(toItemRecord(item))
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.name),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	return classifyError("create item", err, pkgerrors.NewConflictError("item already exists"))
}

// Update replaces the item only if it still exists
func (r *ItemRepository) Update(ctx context.Context, item *entities.Item) (err error) {
	defer r.observe("item_update", time.Now(), &err)

	av, err := attributevalue.MarshalMap(toItemRecord(item))
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.name),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	return classifyError("update item", err, pkgerrors.NewNotFoundError("item"))
}

// Delete removes the item only if it exists
func (r *ItemRepository) Delete(ctx context.Context, ownerID string, id valueobjects.ItemID) (err error) {
	defer r.observe("item_delete", time.Now(), &err)

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.name),
		Key:                 primaryKey(BuildUserPK(ownerID), BuildItemSK(id.String())),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	return classifyError("delete item", err, pkgerrors.NewNotFoundError("item"))
}

func (r *ItemRepository) GetByOwner(ctx context.Context, ownerID string, id valueobjects.ItemID) (item *entities.Item, err error) {
	defer r.observe("item_get", time.Now(), &err)

	// sees writes made earlier in the same request
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.name),
		Key:            primaryKey(BuildUserPK(ownerID), BuildItemSK(id.String())),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classifyError("get item", err, nil)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("item")
	}
	return decodeItem(out.Item)
}

func (r *ItemRepository) FindTeamItem(ctx context.Context, teamID string, id valueobjects.ItemID) (item *entities.Item, err error) {
	defer r.observe("item_find_team", time.Now(), &err)

	input, err := NewQueryBuilder(r.name).
		WithIndex(r.index).
		WithPartition(attrGSI1PK, BuildTeamPK(teamID)).
		WithSortKeyEquals(attrGSI1SK, BuildItemSK(id.String())).
		Build()
	if err != nil {
		return nil, err
	}

	items, err := r.query(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.NewNotFoundError("item")
	}
	return items[0], nil
}

// FindByID scans every partition; reserved for administrators
func (r *ItemRepository) FindByID(ctx context.Context, id valueobjects.ItemID) (item *entities.Item, err error) {
	defer r.observe("item_scan_by_id", time.Now(), &err)

	input, err := NewScanBuilder(r.name).
		WithEntityTypeFilter(entityItem).
		WithAttributeFilter(attrSK, BuildItemSK(id.String())).
		Build()
	if err != nil {
		return nil, err
	}

	items, err := r.scan(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.NewNotFoundError("item")
	}
	if len(items) > 1 {
		r.logger.Warn("Item id present in several partitions", zap.String("itemID", id.String()), zap.Int("count", len(items)))
	}
	return items[0], nil
}

func (r *ItemRepository) ListByOwner(ctx context.Context, ownerID string) (items []*entities.Item, err error) {
	defer r.observe("item_list_owner", time.Now(), &err)

	input, err := NewQueryBuilder(r.name).
		WithPartition(attrPK, BuildUserPK(ownerID)).
		WithSortKeyBeginsWith(attrSK, prefixItem).
		WithConsistentRead(true).
		Build()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, input)
}

func (r *ItemRepository) ListByTeam(ctx context.Context, teamID string) (items []*entities.Item, err error) {
	defer r.observe("item_list_team", time.Now(), &err)

	input, err := NewQueryBuilder(r.name).
		WithIndex(r.index).
		WithPartition(attrGSI1PK, BuildTeamPK(teamID)).
		WithSortKeyBeginsWith(attrGSI1SK, prefixItem).
		Build()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, input)
}

func (r *ItemRepository) ListPublic(ctx context.Context) (items []*entities.Item, err error) {
	defer r.observe("item_list_public", time.Now(), &err)

	input, err := NewScanBuilder(r.name).
		WithEntityTypeFilter(entityItem).
		WithFilter(expression.Name("accessLevel").Equal(expression.Value(valueobjects.AccessPublic.String()))).
		Build()
	if err != nil {
		return nil, err
	}
	return r.scan(ctx, input)
}

func (r *ItemRepository) ListAll(ctx context.Context) (items []*entities.Item, err error) {
	defer r.observe("item_scan", time.Now(), &err)

	input, err := NewScanBuilder(r.name).WithEntityTypeFilter(entityItem).Build()
	if err != nil {
		return nil, err
	}
	return r.scan(ctx, input)
}

func (r *ItemRepository) query(ctx context.Context, input *dynamodb.QueryInput) ([]*entities.Item, error) {
	raw, err := queryAll(ctx, r.client, input)
	if err != nil {
		return nil, classifyError("query items", err, nil)
	}
	return decodeItems(raw)
}

func (r *ItemRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*entities.Item, error) {
	raw, err := scanAll(ctx, r.client, input)
	if err != nil {
		return nil, classifyError("scan items", err, nil)
	}
	return decodeItems(raw)
}

func decodeItem(av map[string]types.AttributeValue) (*entities.Item, error) {
	var rec itemRecord
	if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return rec.toEntity()
}

func decodeItems(raw []map[string]types.AttributeValue) ([]*entities.Item, error) {
	var records []itemRecord
	if err := attributevalue.UnmarshalListOfMaps(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	items := make([]*entities.Item, 0, len(records))
	for _, rec := range records {
		item, err := rec.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
