package nodes

import (
	"math"

	"github.com/brentp/intintmap"
	"github.com/pkg/errors"
	"github.com/segmentio/fasthash/fnv1a"

	. "github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
)

// Aggregate is a per-group reducer. Add is only called with non-null values.
type Aggregate interface {
	Add(value octosql.Value)
	Trigger() octosql.Value
}

// GroupBy forms groups by equality of the key tuple and produces them in first-seen order.
// The output has the key columns first, then the aggregates.
type GroupBy struct {
	source              Node
	keyExprs            []Expression
	keyNames            []string
	keyTypes            []octosql.Type
	aggregateExprs      []Expression
	aggregatePrototypes []func() Aggregate
	aggregateNames      []string
	aggregateTypes      []octosql.Type
}

func NewGroupBy(
	source Node,
	keyExprs []Expression,
	keyNames []string,
	keyTypes []octosql.Type,
	aggregateExprs []Expression,
	aggregatePrototypes []func() Aggregate,
	aggregateNames []string,
	aggregateTypes []octosql.Type,
) *GroupBy {
	return &GroupBy{
		source:              source,
		keyExprs:            keyExprs,
		keyNames:            keyNames,
		keyTypes:            keyTypes,
		aggregateExprs:      aggregateExprs,
		aggregatePrototypes: aggregatePrototypes,
		aggregateNames:      aggregateNames,
		aggregateTypes:      aggregateTypes,
	}
}

type groupEntry struct {
	key        []octosql.Value
	aggregates []Aggregate
}

func (g *GroupBy) Run(ctx Context) (*Table, error) {
	table, err := g.source.Run(ctx)
	if err != nil {
		return nil, err
	}

	keyColumns, err := evaluateAll(ctx, table, g.keyExprs)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't evaluate group by key")
	}
	aggregateColumns, err := evaluateAll(ctx, table, g.aggregateExprs)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't evaluate aggregate arguments")
	}

	var entries []*groupEntry
	// Most hashes map to exactly one group, collisions go to the overflow map.
	entryIndices := intintmap.New(1024, 0.6)
	collisions := make(map[uint64][]int)

	key := make([]octosql.Value, len(keyColumns))
	for row := 0; row < table.NumRows(); row++ {
		hash := fnv1a.Init64
		for i := range keyColumns {
			key[i] = keyColumns[i][row]
			hash = hashValue(hash, key[i])
		}

		entryIndex := -1
		if index, ok := entryIndices.Get(int64(hash)); ok {
			if keyEqual(entries[index].key, key) {
				entryIndex = int(index)
			} else {
				for _, candidate := range collisions[hash] {
					if keyEqual(entries[candidate].key, key) {
						entryIndex = candidate
						break
					}
				}
				if entryIndex == -1 {
					entryIndex = len(entries)
					collisions[hash] = append(collisions[hash], entryIndex)
					entries = append(entries, g.newEntry(key))
				}
			}
		} else {
			entryIndex = len(entries)
			entryIndices.Put(int64(hash), int64(entryIndex))
			entries = append(entries, g.newEntry(key))
		}

		entry := entries[entryIndex]
		for i := range aggregateColumns {
			value := aggregateColumns[i][row]
			if value.TypeID == octosql.TypeIDNull {
				continue
			}
			entry.aggregates[i].Add(value)
		}
	}

	columns := make([]*Column, 0, len(g.keyExprs)+len(g.aggregateExprs))
	for i := range g.keyExprs {
		values := make([]octosql.Value, len(entries))
		for j := range entries {
			values[j] = entries[j].key[i]
		}
		columns = append(columns, NewColumn(g.keyNames[i], g.keyTypes[i], values))
	}
	for i := range g.aggregateExprs {
		values := make([]octosql.Value, len(entries))
		for j := range entries {
			values[j] = entries[j].aggregates[i].Trigger()
		}
		columns = append(columns, NewColumn(g.aggregateNames[i], g.aggregateTypes[i], values))
	}
	if len(columns) == 0 {
		return NewEmptyTable(len(entries)), nil
	}
	return NewTable(columns...)
}

func (g *GroupBy) newEntry(key []octosql.Value) *groupEntry {
	entry := &groupEntry{
		key:        make([]octosql.Value, len(key)),
		aggregates: make([]Aggregate, len(g.aggregatePrototypes)),
	}
	copy(entry.key, key)
	for i := range g.aggregatePrototypes {
		entry.aggregates[i] = g.aggregatePrototypes[i]()
	}
	return entry
}

func evaluateAll(ctx Context, table *Table, exprs []Expression) ([][]octosql.Value, error) {
	out := make([][]octosql.Value, len(exprs))
	for i, expr := range exprs {
		column, err := expr.Evaluate(ctx, table)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't evaluate expression %d", i)
		}
		out[i] = column.Values()
	}
	return out, nil
}

func keyEqual(a, b []octosql.Value) bool {
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// hashValue is consistent with octosql.Value.Equal.
func hashValue(hash uint64, value octosql.Value) uint64 {
	hash = fnv1a.AddUint64(hash, uint64(value.TypeID))
	switch value.TypeID {
	case octosql.TypeIDInt:
		hash = fnv1a.AddUint64(hash, uint64(value.Int))
	case octosql.TypeIDFloat:
		f := value.Float
		if f == 0 {
			f = 0 // negative zero
		} else if math.IsNaN(f) {
			f = math.NaN()
		}
		hash = fnv1a.AddUint64(hash, math.Float64bits(f))
	case octosql.TypeIDBoolean:
		if value.Boolean {
			hash = fnv1a.AddUint64(hash, 1)
		}
	case octosql.TypeIDString:
		hash = fnv1a.AddString64(hash, value.Str)
	case octosql.TypeIDTime:
		hash = fnv1a.AddUint64(hash, uint64(value.Time.UnixNano()))
	case octosql.TypeIDList:
		hash = fnv1a.AddUint64(hash, uint64(len(value.List)))
		for i := range value.List {
			hash = hashValue(hash, value.List[i])
		}
	case octosql.TypeIDStruct:
		hash = fnv1a.AddUint64(hash, uint64(len(value.Struct)))
		for i := range value.Struct {
			hash = hashValue(hash, value.Struct[i])
		}
	}
	return hash
}
