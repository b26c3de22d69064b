// Package formats renders materialized tables.
package formats

import (
	"io"

	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

type Format interface {
	SetSchema(schema physical.Schema)
	Write(values []octosql.Value) error
	Close() error
}

func New(name string, w io.Writer) (Format, error) {
	switch name {
	case "table":
		return NewTableFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "arrow":
		return NewArrowFormatter(w), nil
	default:
		return nil, errors.Errorf("invalid output format: '%s'", name)
	}
}

// WriteTable writes all rows of the table and closes the formatter.
func WriteTable(format Format, table *execution.Table) error {
	format.SetSchema(physical.TableSchema(table))
	for i := 0; i < table.NumRows(); i++ {
		if err := format.Write(table.Row(i)); err != nil {
			return errors.Wrapf(err, "couldn't write row %d", i)
		}
	}
	return format.Close()
}
