package dynamodb

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	eqPattern         = regexp.MustCompile(`(#\d+) = (:\d+)`)
	beginsWithPattern = regexp.MustCompile(`begins_with\s*\((#\d+),\s*(:\d+)\)`)
)

// fakeTable is a small in-memory DynamoDB understanding the expressions the
// repositories generate: equality, begins_with and attribute_(not_)exists.
type fakeTable struct {
	mu       sync.Mutex
	rows     map[string]map[string]types.AttributeValue
	pageSize int

	gets         []*dynamodb.GetItemInput
	queries      []*dynamodb.QueryInput
	scans        []*dynamodb.ScanInput
	transactions int
	failWith     error
}

func newFakeTable() *fakeTable {
	return &fakeTable{rows: make(map[string]map[string]types.AttributeValue)}
}

func rowKey(item map[string]types.AttributeValue) string {
	return str(item[attrPK]) + "|" + str(item[attrSK])
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeTable) row(pk, sk string) map[string]types.AttributeValue {
	return f.rows[pk+"|"+sk]
}

func conditionFails(cond *string, exists bool) bool {
	c := aws.ToString(cond)
	switch {
	case strings.Contains(c, "attribute_not_exists"):
		return exists
	case strings.Contains(c, "attribute_exists"):
		return !exists
	}
	return false
}

func (f *fakeTable) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &dynamodb.GetItemOutput{Item: f.rows[rowKey(in.Key)]}, nil
}

func (f *fakeTable) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	_, exists := f.rows[rowKey(in.Item)]
	if conditionFails(in.ConditionExpression, exists) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	f.rows[rowKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.applyUpdate(in.Key, in.UpdateExpression, in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeTable) applyUpdate(key map[string]types.AttributeValue, update, cond *string, names map[string]string, values map[string]types.AttributeValue) error {
	row, exists := f.rows[rowKey(key)]
	if conditionFails(cond, exists) {
		return &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	if !exists {
		row = map[string]types.AttributeValue{attrPK: key[attrPK], attrSK: key[attrSK]}
	}
	for _, m := range eqPattern.FindAllStringSubmatch(aws.ToString(update), -1) {
		row[names[m[1]]] = values[m[2]]
	}
	f.rows[rowKey(key)] = row
	return nil
}

func (f *fakeTable) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	_, exists := f.rows[rowKey(in.Key)]
	if conditionFails(in.ConditionExpression, exists) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	delete(f.rows, rowKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions++

	// check every condition before applying anything
	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, w := range in.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		var key map[string]types.AttributeValue
		var cond *string
		switch {
		case w.Put != nil:
			key, cond = w.Put.Item, w.Put.ConditionExpression
		case w.Update != nil:
			key, cond = w.Update.Key, w.Update.ConditionExpression
		case w.Delete != nil:
			key, cond = w.Delete.Key, w.Delete.ConditionExpression
		}
		_, exists := f.rows[rowKey(key)]
		if conditionFails(cond, exists) {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{Message: aws.String("cancelled"), CancellationReasons: reasons}
	}

	for _, w := range in.TransactItems {
		switch {
		case w.Put != nil:
			f.rows[rowKey(w.Put.Item)] = w.Put.Item
		case w.Update != nil:
			_ = f.applyUpdate(w.Update.Key, w.Update.UpdateExpression, nil, w.Update.ExpressionAttributeNames, w.Update.ExpressionAttributeValues)
		case w.Delete != nil:
			delete(f.rows, rowKey(w.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeTable) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (f *fakeTable) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.queries = append(f.queries, in)

	match := matcher(aws.ToString(in.KeyConditionExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if in.FilterExpression != nil {
		filter := matcher(aws.ToString(in.FilterExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
		key := match
		match = func(row map[string]types.AttributeValue) bool { return key(row) && filter(row) }
	}
	items, last := f.page(match, in.ExclusiveStartKey)
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: last}, nil
}

func (f *fakeTable) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.scans = append(f.scans, in)

	match := matcher(aws.ToString(in.FilterExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	items, last := f.page(match, in.ExclusiveStartKey)
	return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: last}, nil
}

func matcher(expr string, names map[string]string, values map[string]types.AttributeValue) func(map[string]types.AttributeValue) bool {
	eqs := eqPattern.FindAllStringSubmatch(expr, -1)
	prefixes := beginsWithPattern.FindAllStringSubmatch(expr, -1)
	return func(row map[string]types.AttributeValue) bool {
		for _, m := range eqs {
			if !sameValue(row[names[m[1]]], values[m[2]]) {
				return false
			}
		}
		for _, m := range prefixes {
			attr, ok := row[names[m[1]]]
			if !ok || !strings.HasPrefix(str(attr), str(values[m[2]])) {
				return false
			}
		}
		return true
	}
}

func sameValue(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	}
	return false
}

// page returns matches in key order, pageSize at a time
func (f *fakeTable) page(match func(map[string]types.AttributeValue) bool, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	after := ""
	if start != nil {
		after = rowKey(start)
	}

	var out []map[string]types.AttributeValue
	for _, k := range keys {
		if after != "" && k <= after {
			continue
		}
		row := f.rows[k]
		if !match(row) {
			continue
		}
		out = append(out, row)
		if f.pageSize > 0 && len(out) == f.pageSize {
			last := out[len(out)-1]
			return out, map[string]types.AttributeValue{attrPK: last[attrPK], attrSK: last[attrSK]}
		}
	}
	return out, nil
}
