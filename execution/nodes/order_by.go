package nodes

import (
	"fmt"

	"github.com/google/btree"
	"github.com/pkg/errors"

	. "github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
)

// OrderBy is a stable multi-key sort. Ties on all keys keep the source row order.
type OrderBy struct {
	source               Node
	keyExprs             []Expression
	directionMultipliers []int
	nullsLast            bool
}

// NewOrderBy creates a sort node. A direction multiplier is 1 for ascending and -1 for descending.
// Nulls compare smaller than everything else, so they come first ascending and last descending,
// unless nullsLast is set, in which case they always come last.
func NewOrderBy(source Node, keyExprs []Expression, directionMultipliers []int, nullsLast bool) *OrderBy {
	return &OrderBy{
		source:               source,
		keyExprs:             keyExprs,
		directionMultipliers: directionMultipliers,
		nullsLast:            nullsLast,
	}
}

type orderByItem struct {
	Key   []octosql.Value
	Row   int
	Order *OrderBy
}

func (item *orderByItem) Less(than btree.Item) bool {
	thanTyped, ok := than.(*orderByItem)
	if !ok {
		panic(fmt.Sprintf("invalid order by key comparison: %T", than))
	}

	for i := 0; i < len(item.Key); i++ {
		left, right := item.Key[i], thanTyped.Key[i]
		if item.Order.nullsLast && left.IsNull() != right.IsNull() {
			return right.IsNull()
		}
		if comp := left.Compare(right); comp != 0 {
			return comp*item.Order.directionMultipliers[i] == -1
		}
	}

	return item.Row < thanTyped.Row
}

func (o *OrderBy) Run(ctx Context) (*Table, error) {
	table, err := o.source.Run(ctx)
	if err != nil {
		return nil, err
	}

	keyColumns, err := evaluateAll(ctx, table, o.keyExprs)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't evaluate order by key")
	}

	items := btree.New(BTreeDefaultDegree)
	for row := 0; row < table.NumRows(); row++ {
		key := make([]octosql.Value, len(keyColumns))
		for i := range keyColumns {
			key[i] = keyColumns[i][row]
		}
		items.ReplaceOrInsert(&orderByItem{
			Key:   key,
			Row:   row,
			Order: o,
		})
	}

	indices := make([]int, 0, table.NumRows())
	items.Ascend(func(item btree.Item) bool {
		indices = append(indices, item.(*orderByItem).Row)
		return true
	})

	return table.Take(ctx, indices)
}
