package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemoryStore is an in-process Store with DynamoDB query semantics: index
// items are ordered by range key, Limit is applied before Filter, and
// cursors resume after the last evaluated item. It backs tests and local
// development without a DynamoDB endpoint.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]Item
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]map[string]Item),
	}
}

func (m *MemoryStore) spec(table string) (TableSpec, error) {
	spec, ok := LookupTable(table)
	if !ok {
		return TableSpec{}, fmt.Errorf("unknown table %q", table)
	}
	return spec, nil
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, table string, key Key, out any) (bool, error) {
	spec, err := m.spec(table)
	if err != nil {
		return false, err
	}

	m.mu.RLock()
	item, ok := m.tables[table][key[spec.HashKey]]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := UnmarshalItem(item, out); err != nil {
		return false, fmt.Errorf("decode %s item: %w", table, err)
	}
	return true, nil
}

// Put implements Store
func (m *MemoryStore) Put(_ context.Context, table string, record any) error {
	spec, err := m.spec(table)
	if err != nil {
		return err
	}
	item, err := MarshalItem(record)
	if err != nil {
		return fmt.Errorf("encode %s item: %w", table, err)
	}
	id := stringAttr(item, spec.HashKey)
	if id == "" {
		return fmt.Errorf("put %s: missing key attribute %q", table, spec.HashKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables[table] == nil {
		m.tables[table] = make(map[string]Item)
	}
	m.tables[table][id] = item
	return nil
}

// Delete implements Store
func (m *MemoryStore) Delete(_ context.Context, table string, key Key) error {
	spec, err := m.spec(table)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.tables[table], key[spec.HashKey])
	m.mu.Unlock()
	return nil
}

// Query implements Store
func (m *MemoryStore) Query(_ context.Context, q Query) (*Page, error) {
	spec, err := m.spec(q.Table)
	if err != nil {
		return nil, err
	}

	hashKey, rangeKey := spec.HashKey, ""
	if q.Index != "" {
		idx, ok := spec.Index(q.Index)
		if !ok {
			return nil, fmt.Errorf("query %s: unknown index %q", q.Table, q.Index)
		}
		hashKey, rangeKey = idx.HashKey, idx.RangeKey
	}
	if q.Partition.Name != hashKey {
		return nil, fmt.Errorf("query %s: %q is not the partition key", q.Table, q.Partition.Name)
	}
	if q.Sort != nil && q.Sort.Name != rangeKey {
		return nil, fmt.Errorf("query %s: %q is not the range key", q.Table, q.Sort.Name)
	}

	m.mu.RLock()
	var matched []Item
	for _, item := range m.tables[q.Table] {
		if stringAttr(item, hashKey) != q.Partition.Value {
			continue
		}
		if q.Sort != nil && stringAttr(item, rangeKey) != q.Sort.Value {
			continue
		}
		matched = append(matched, item)
	}
	m.mu.RUnlock()

	less := positionLess(rangeKey, spec.HashKey)
	sort.Slice(matched, func(i, j int) bool {
		if q.Ascending {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
	})

	return m.page(matched, spec, rangeKey, q.Ascending, q.Cursor, q.Limit, q.Filter)
}

// Scan implements Store
func (m *MemoryStore) Scan(_ context.Context, sc Scan) (*Page, error) {
	spec, err := m.spec(sc.Table)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	items := make([]Item, 0, len(m.tables[sc.Table]))
	for _, item := range m.tables[sc.Table] {
		items = append(items, item)
	}
	m.mu.RUnlock()

	less := positionLess("", spec.HashKey)
	sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })

	return m.page(items, spec, "", true, sc.Cursor, sc.Limit, sc.Filter)
}

// page applies cursor, limit and filter to ordered items
func (m *MemoryStore) page(ordered []Item, spec TableSpec, rangeKey string, ascending bool, cursor string, limit int32, filter map[string]any) (*Page, error) {
	start, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	if start != nil {
		pos := start.attributes()
		less := positionLess(rangeKey, spec.HashKey)
		i := 0
		for ; i < len(ordered); i++ {
			after := less(pos, ordered[i])
			if !ascending {
				after = less(ordered[i], pos)
			}
			if after {
				break
			}
		}
		ordered = ordered[i:]
	}

	evaluated := ordered
	next := ""
	if limit > 0 && int(limit) < len(ordered) {
		evaluated = ordered[:limit]
		last := evaluated[len(evaluated)-1]
		keyNames := []string{spec.HashKey}
		if rangeKey != "" {
			keyNames = spec.KeyAttributes()
		}
		next = EncodeCursor(keyFromItem(last, keyNames...))
	}

	want, err := marshalFilter(filter)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(evaluated))
	for _, item := range evaluated {
		if matchesFilter(item, want) {
			items = append(items, item)
		}
	}

	return &Page{Items: items, Cursor: next}, nil
}

// positionLess orders items by range key, then by table key
func positionLess(rangeKey, hashKey string) func(a, b Item) bool {
	return func(a, b Item) bool {
		if rangeKey != "" {
			ra, rb := stringAttr(a, rangeKey), stringAttr(b, rangeKey)
			if ra != rb {
				return ra < rb
			}
		}
		return stringAttr(a, hashKey) < stringAttr(b, hashKey)
	}
}

func stringAttr(item Item, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func marshalFilter(filter map[string]any) (Item, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	want := make(Item, len(filter))
	for name, v := range filter {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode filter %q: %w", name, err)
		}
		want[name] = av
	}
	return want, nil
}

func matchesFilter(item, want Item) bool {
	for name, av := range want {
		if !reflect.DeepEqual(item[name], av) {
			return false
		}
	}
	return true
}

var _ Store = (*MemoryStore)(nil)
