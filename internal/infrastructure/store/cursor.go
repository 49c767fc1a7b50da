package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EncodeCursor turns a position key into an opaque cursor string.
func EncodeCursor(k Key) string {
	if len(k) == 0 {
		return ""
	}
	raw, err := json.Marshal(k)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a cursor produced by EncodeCursor. An empty cursor
// decodes to a nil key.
func DecodeCursor(cursor string) (Key, error) {
	if cursor == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var k Key
	if err := json.Unmarshal(raw, &k); err != nil || len(k) == 0 {
		return nil, ErrInvalidCursor
	}
	return k, nil
}

// CursorAt returns the cursor that resumes a query on table (and index, if
// set) immediately after record. It is used to restart a partially consumed
// page.
func CursorAt(table, index string, record any) (string, error) {
	spec, ok := LookupTable(table)
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	names := []string{spec.HashKey}
	if index != "" {
		idx, ok := spec.Index(index)
		if !ok {
			return "", fmt.Errorf("table %s: unknown index %q", table, index)
		}
		names = append(names, idx.HashKey)
		if idx.RangeKey != "" {
			names = append(names, idx.RangeKey)
		}
	}
	item, err := MarshalItem(record)
	if err != nil {
		return "", err
	}
	return EncodeCursor(keyFromItem(item, names...)), nil
}

func cursorFromEvaluatedKey(lek map[string]types.AttributeValue) string {
	if len(lek) == 0 {
		return ""
	}
	k := make(Key, len(lek))
	for name, av := range lek {
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			k[name] = s.Value
		}
	}
	return EncodeCursor(k)
}

func startKeyFromCursor(cursor string) (map[string]types.AttributeValue, error) {
	k, err := DecodeCursor(cursor)
	if err != nil || k == nil {
		return nil, err
	}
	return k.attributes(), nil
}
