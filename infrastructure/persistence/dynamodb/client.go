// Package dynamodb implements the repository ports on a single DynamoDB table.
//
// Layout (PK / SK):
//
//	USER#<uid>      / ITEM#<id>       item, GSI1PK=TEAM#<tid> for TEAM items
//	TEAM#<tid>      / METADATA        team
//	USER#<uid>      / TEAM#<tid>      membership index row
//	USER#<uid>      / PROFILE         stored role
//	USER#<uid>      / APIKEY#<id>     developer key
//	APIKEY#<sha256> / METADATA        developer key lookup
package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// API is the part of *dynamodb.Client the repositories use
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Config names the table and the team index
type Config struct {
	TableName string
	IndexName string
}

// table bundles what every repository needs
type table struct {
	client    API
	name      string
	index     string
	collector *observability.Collector
}

func newTable(client API, cfg Config, collector *observability.Collector) table {
	index := cfg.IndexName
	if index == "" {
		index = "GSI1"
	}
	return table{client: client, name: cfg.TableName, index: index, collector: collector}
}

// observe records one store call; use as defer t.observe("op", time.Now(), &err)
func (t table) observe(operation string, start time.Time, err *error) {
	t.collector.RecordDBOperation(operation, time.Since(start), *err)
}

// Ping checks that the table is reachable
func (t table) Ping(ctx context.Context) (err error) {
	defer t.observe("ping", time.Now(), &err)
	_, err = t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &t.name})
	if err != nil {
		return classifyError("describe table", err, nil)
	}
	return nil
}
