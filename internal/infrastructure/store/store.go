// Package store provides document-store access for all entity tables.
package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/offeringbowl/backend/internal/domain/shared"
)

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
// It is a client error.
var ErrInvalidCursor = shared.Unprocessable("Invalid pagination cursor.")

// Item is a stored record in attribute-value form
type Item = map[string]types.AttributeValue

// Key identifies an item or a position in an index. All keys in this system
// are string attributes.
type Key map[string]string

// Condition is an equality test on a key attribute
type Condition struct {
	Name  string
	Value string
}

// Query selects items from a table or secondary index by partition key.
type Query struct {
	Table     string
	Index     string
	Partition Condition
	// Sort optionally pins the range key
	Sort *Condition
	// Filter is applied after Limit, as DynamoDB does
	Filter    map[string]any
	Ascending bool
	Limit     int32
	Cursor    string
}

// Scan reads a whole table. It is reserved for maintenance paths.
type Scan struct {
	Table  string
	Filter map[string]any
	Limit  int32
	Cursor string
}

// Page is one page of results. An empty Cursor means there are no more pages.
type Page struct {
	Items  []Item
	Cursor string
}

// Decode unmarshals the page items into out, which must be a pointer to a slice.
func (p *Page) Decode(out any) error {
	return attributevalue.UnmarshalListOfMapsWithOptions(p.Items, out, decoderOptions)
}

// Store is the uniform CRUD surface over the document store. There is no
// optimistic concurrency: Put is last-write-wins.
type Store interface {
	// Get loads the item under key into out. found is false when absent.
	Get(ctx context.Context, table string, key Key, out any) (found bool, err error)
	// Put writes item, replacing any existing record with the same key.
	Put(ctx context.Context, table string, item any) error
	// Delete removes the item; deleting a missing key succeeds.
	Delete(ctx context.Context, table string, key Key) error
	Query(ctx context.Context, q Query) (*Page, error)
	Scan(ctx context.Context, s Scan) (*Page, error)
}

func encoderOptions(o *attributevalue.EncoderOptions) {
	o.UseEncodingMarshalers = true
}

func decoderOptions(o *attributevalue.DecoderOptions) {
	o.UseEncodingUnmarshalers = true
}

// MarshalItem converts a record into attribute-value form.
func MarshalItem(v any) (Item, error) {
	return attributevalue.MarshalMapWithOptions(v, encoderOptions)
}

// UnmarshalItem converts an attribute-value item into out.
func UnmarshalItem(item Item, out any) error {
	return attributevalue.UnmarshalMapWithOptions(item, out, decoderOptions)
}

func (k Key) attributes() Item {
	item := make(Item, len(k))
	for name, value := range k {
		item[name] = &types.AttributeValueMemberS{Value: value}
	}
	return item
}

func keyFromItem(item Item, names ...string) Key {
	k := make(Key, len(names))
	for _, name := range names {
		if s, ok := item[name].(*types.AttributeValueMemberS); ok {
			k[name] = s.Value
		}
	}
	return k
}
