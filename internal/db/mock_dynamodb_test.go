package db

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// memoryDDB is a minimal in-memory DynamoDB for unit tests: PK+SK keyed
// items, the attribute_not_exists(PK) conditional put, and enough Query
// support for the PK + begins_with(SK) access pattern.
type memoryDDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	putCalls int
}

func newMemoryDDB() *memoryDDB {
	return &memoryDDB{items: map[string]map[string]types.AttributeValue{}}
}

func itemKey(item map[string]types.AttributeValue) string {
	pk, _ := item["PK"].(*types.AttributeValueMemberS)
	sk, _ := item["SK"].(*types.AttributeValueMemberS)
	k := ""
	if pk != nil {
		k = pk.Value
	}
	if sk != nil {
		k += "|" + sk.Value
	}
	return k
}

func (m *memoryDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	k := itemKey(params.Item)
	if k == "" {
		return nil, errors.New("item missing PK")
	}

	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_not_exists") {
		if _, exists := m.items[k]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	m.items[k] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memoryDDB) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (m *memoryDDB) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *memoryDDB) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, itemKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query supports PK = :pk AND begins_with(SK, :prefix); filters and GSIs
// are ignored.
func (m *memoryDDB) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkAttr, _ := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
	if pkAttr == nil {
		return nil, errors.New("query missing :pk")
	}

	var prefix string
	for name, av := range params.ExpressionAttributeValues {
		if name == ":pk" {
			continue
		}
		if sv, ok := av.(*types.AttributeValueMemberS); ok && strings.Contains(*params.KeyConditionExpression, name) {
			prefix = sv.Value
		}
	}

	var keys []string
	for k := range m.items {
		parts := strings.SplitN(k, "|", 2)
		if parts[0] != pkAttr.Value {
			continue
		}
		if prefix != "" && (len(parts) < 2 || !strings.HasPrefix(parts[1], prefix)) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &dynamodb.QueryOutput{}
	for _, k := range keys {
		out.Items = append(out.Items, m.items[k])
	}
	return out, nil
}

func (m *memoryDDB) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := &dynamodb.ScanOutput{}
	var keys []string
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Items = append(out.Items, m.items[k])
	}
	return out, nil
}
