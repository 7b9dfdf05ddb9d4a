package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// QueryBuilder provides a fluent interface for building DynamoDB queries
type QueryBuilder struct {
	tableName       string
	indexName       *string
	keyCondition    *expression.KeyConditionBuilder
	filterCondition *expression.ConditionBuilder
	limit           *int32
	scanForward     *bool
	consistentRead  *bool
}

// NewQueryBuilder creates a new query builder instance
func NewQueryBuilder(tableName string) *QueryBuilder {
	return &QueryBuilder{tableName: tableName}
}

// WithIndex sets the index name for the query
func (qb *QueryBuilder) WithIndex(indexName string) *QueryBuilder {
	qb.indexName = &indexName
	return qb
}

// WithPartition adds a partition key condition on attr
func (qb *QueryBuilder) WithPartition(attr, value string) *QueryBuilder {
	keyExpr := expression.Key(attr).Equal(expression.Value(value))
	qb.keyCondition = &keyExpr
	return qb
}

// WithSortKeyEquals narrows the partition to one sort key
func (qb *QueryBuilder) WithSortKeyEquals(attr, value string) *QueryBuilder {
	return qb.andKey(expression.Key(attr).Equal(expression.Value(value)))
}

// WithSortKeyBeginsWith adds a sort key begins with condition
func (qb *QueryBuilder) WithSortKeyBeginsWith(attr, prefix string) *QueryBuilder {
	return qb.andKey(expression.Key(attr).BeginsWith(prefix))
}

func (qb *QueryBuilder) andKey(cond expression.KeyConditionBuilder) *QueryBuilder {
	if qb.keyCondition == nil {
		qb.keyCondition = &cond
		return qb
	}
	combined := qb.keyCondition.And(cond)
	qb.keyCondition = &combined
	return qb
}

// WithFilter adds a filter expression
func (qb *QueryBuilder) WithFilter(filter expression.ConditionBuilder) *QueryBuilder {
	if qb.filterCondition == nil {
		qb.filterCondition = &filter
	} else {
		combined := qb.filterCondition.And(filter)
		qb.filterCondition = &combined
	}
	return qb
}

// WithLimit sets the page size
func (qb *QueryBuilder) WithLimit(limit int32) *QueryBuilder {
	qb.limit = &limit
	return qb
}

// WithScanDirection sets the scan direction (true = forward, false = backward)
func (qb *QueryBuilder) WithScanDirection(forward bool) *QueryBuilder {
	qb.scanForward = &forward
	return qb
}

// WithConsistentRead enables consistent read
func (qb *QueryBuilder) WithConsistentRead(consistent bool) *QueryBuilder {
	qb.consistentRead = &consistent
	return qb
}

// Build constructs the final QueryInput
func (qb *QueryBuilder) Build() (*dynamodb.QueryInput, error) {
	if qb.keyCondition == nil {
		return nil, fmt.Errorf("key condition is required for query")
	}

	builder := expression.NewBuilder().WithKeyCondition(*qb.keyCondition)
	if qb.filterCondition != nil {
		builder = builder.WithFilter(*qb.filterCondition)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(qb.tableName),
		IndexName:                 qb.indexName,
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     qb.limit,
		ScanIndexForward:          qb.scanForward,
		ConsistentRead:            qb.consistentRead,
	}
	if qb.filterCondition != nil {
		input.FilterExpression = expr.Filter()
	}
	return input, nil
}

// ScanBuilder provides a fluent interface for building DynamoDB scans
type ScanBuilder struct {
	tableName       string
	filterCondition *expression.ConditionBuilder
	limit           *int32
}

// NewScanBuilder creates a new scan builder instance
func NewScanBuilder(tableName string) *ScanBuilder {
	return &ScanBuilder{tableName: tableName}
}

// WithFilter adds a filter expression
func (sb *ScanBuilder) WithFilter(filter expression.ConditionBuilder) *ScanBuilder {
	if sb.filterCondition == nil {
		sb.filterCondition = &filter
	} else {
		combined := sb.filterCondition.And(filter)
		sb.filterCondition = &combined
	}
	return sb
}

// WithEntityTypeFilter adds an entity type filter
func (sb *ScanBuilder) WithEntityTypeFilter(entityType string) *ScanBuilder {
	return sb.WithFilter(expression.Name("EntityType").Equal(expression.Value(entityType)))
}

// WithAttributeFilter adds an attribute equals filter
func (sb *ScanBuilder) WithAttributeFilter(attribute string, value interface{}) *ScanBuilder {
	return sb.WithFilter(expression.Name(attribute).Equal(expression.Value(value)))
}

// WithLimit sets the page size
func (sb *ScanBuilder) WithLimit(limit int32) *ScanBuilder {
	sb.limit = &limit
	return sb
}

// Build constructs the final ScanInput
func (sb *ScanBuilder) Build() (*dynamodb.ScanInput, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(sb.tableName),
		Limit:     sb.limit,
	}
	// an empty expression builder refuses to build
	if sb.filterCondition == nil {
		return input, nil
	}

	expr, err := expression.NewBuilder().WithFilter(*sb.filterCondition).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	input.FilterExpression = expr.Filter()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()
	return input, nil
}

// queryAll follows LastEvaluatedKey until the result set is exhausted
func queryAll(ctx context.Context, client API, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var out []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
	}
	return out, nil
}

// scanAll follows LastEvaluatedKey until the table is exhausted
func scanAll(ctx context.Context, client API, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var out []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
	}
	return out, nil
}
