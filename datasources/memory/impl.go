// Package memory exposes in-memory tables as datasources.
package memory

import (
	"context"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/physical"
)

type impl struct {
	table *execution.Table
}

func NewDatasource(table *execution.Table) physical.DatasourceImplementation {
	return &impl{
		table: table,
	}
}

func (i *impl) Schema() (physical.Schema, error) {
	return physical.TableSchema(i.table), nil
}

func (i *impl) Materialize(ctx context.Context, env physical.Environment, columns []string) (execution.Node, error) {
	return nodes.NewTableSource(i.table, columns), nil
}
