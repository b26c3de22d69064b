// Package parquet persists tables as parquet files.
// Scalar columns are stored as optional leaves. Lists and structs as JSON text, since the cache only
// needs to round-trip them. The exact column types are kept in the file metadata.
package parquet

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

const schemaMetadataKey = "octogeo.schema"

const readBatchSize = 1024

type schemaMetadata struct {
	Columns []columnMetadata `yaml:"columns"`
}

type columnMetadata struct {
	Name string       `yaml:"name"`
	Type octosql.Type `yaml:"type"`
}

func leafOf(t octosql.Type) parquet.Node {
	switch octosql.WithoutNull(t).TypeID {
	case octosql.TypeIDInt, octosql.TypeIDTime:
		return parquet.Int(64)
	case octosql.TypeIDFloat:
		return parquet.Leaf(parquet.DoubleType)
	case octosql.TypeIDBoolean:
		return parquet.Leaf(parquet.BooleanType)
	}
	// Strings, nested values and null columns.
	return parquet.String()
}

// Write stores the table at path. The file is written to a temporary path first and renamed,
// so readers never see a partial file.
func Write(path string, table *execution.Table) error {
	group := parquet.Group{}
	metadata := schemaMetadata{}
	for _, column := range table.Columns() {
		group[column.Name] = parquet.Optional(leafOf(column.Type))
		metadata.Columns = append(metadata.Columns, columnMetadata{Name: column.Name, Type: column.Type})
	}
	schema := parquet.NewSchema("octogeo", group)
	metadataBytes, err := yaml.Marshal(metadata)
	if err != nil {
		return errors.Wrap(err, "couldn't encode schema metadata")
	}

	// Leaves of a group are ordered by name.
	columnIndex := make(map[string]int)
	for i, path := range schema.Columns() {
		columnIndex[path[0]] = i
	}
	order := make([]*execution.Column, len(table.Columns()))
	for _, column := range table.Columns() {
		order[columnIndex[column.Name]] = column
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return octosql.WrapIOError(err, "couldn't create directory")
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return octosql.WrapIOError(err, "couldn't create file")
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	w := parquet.NewWriter(f, schema, parquet.KeyValueMetadata(schemaMetadataKey, string(metadataBytes)))
	rows := make([]parquet.Row, 0, readBatchSize)
	for i := 0; i < table.NumRows(); i++ {
		row := make(parquet.Row, len(order))
		for col, column := range order {
			value := column.Value(i)
			if value.IsNull() {
				row[col] = parquet.ValueOf(nil).Level(0, 0, col)
				continue
			}
			raw, err := encodeValue(value)
			if err != nil {
				return errors.Wrapf(err, "couldn't encode value of column %s", column.Name)
			}
			row[col] = parquet.ValueOf(raw).Level(0, 1, col)
		}
		rows = append(rows, row)
		if len(rows) == cap(rows) {
			if _, err := w.WriteRows(rows); err != nil {
				return octosql.WrapIOError(err, "couldn't write rows")
			}
			rows = rows[:0]
		}
	}
	if _, err := w.WriteRows(rows); err != nil {
		return octosql.WrapIOError(err, "couldn't write rows")
	}
	if err := w.Close(); err != nil {
		return octosql.WrapIOError(err, "couldn't close parquet writer")
	}
	if err := f.Close(); err != nil {
		return octosql.WrapIOError(err, "couldn't close file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return octosql.WrapIOError(err, "couldn't move file into place")
	}
	return nil
}

func encodeValue(value octosql.Value) (interface{}, error) {
	switch value.TypeID {
	case octosql.TypeIDInt:
		return int64(value.Int), nil
	case octosql.TypeIDTime:
		return value.Time.UnixNano(), nil
	case octosql.TypeIDFloat:
		return value.Float, nil
	case octosql.TypeIDBoolean:
		return value.Boolean, nil
	case octosql.TypeIDString:
		return value.Str, nil
	case octosql.TypeIDList, octosql.TypeIDStruct:
		return string(marshalNested(value)), nil
	}
	return nil, errors.Errorf("unsupported value type %s", value.TypeID)
}

type file struct {
	f        *os.File
	pf       *parquet.File
	metadata schemaMetadata
}

func open(path string) (*file, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, octosql.WrapIOError(err, "couldn't open file")
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, octosql.WrapIOError(err, "couldn't stat file")
	}
	pf, err := parquet.OpenFile(f, stat.Size(), &parquet.FileConfig{
		SkipPageIndex:    true,
		SkipBloomFilters: true,
	})
	if err != nil {
		f.Close()
		return nil, octosql.WrapIOError(err, "couldn't open parquet file")
	}
	rawMetadata, ok := pf.Lookup(schemaMetadataKey)
	if !ok {
		f.Close()
		return nil, octosql.ParseErrorf("parquet file %s has no schema metadata", path)
	}
	var metadata schemaMetadata
	if err := yaml.Unmarshal([]byte(rawMetadata), &metadata); err != nil {
		f.Close()
		return nil, octosql.WrapParseError(err, "couldn't decode schema metadata")
	}
	return &file{
		f:        f,
		pf:       pf,
		metadata: metadata,
	}, nil
}

// Read loads the given columns of the file, in the given order. Nil columns means all of them.
func Read(path string, columns []string) (*execution.Table, error) {
	file, err := open(path)
	if err != nil {
		return nil, err
	}
	defer file.f.Close()

	if columns == nil {
		for _, column := range file.metadata.Columns {
			columns = append(columns, column.Name)
		}
	}
	types := make(map[string]octosql.Type, len(file.metadata.Columns))
	for _, column := range file.metadata.Columns {
		types[column.Name] = column.Type
	}
	indices := make(map[string]int)
	for i, path := range file.pf.Schema().Columns() {
		indices[path[0]] = i
	}

	outIndex := make([]int, len(columns))
	values := make([][]octosql.Value, len(columns))
	for i, name := range columns {
		index, ok := indices[name]
		if !ok {
			return nil, octosql.SchemaErrorf("parquet file has no column %s", name)
		}
		outIndex[i] = index
		values[i] = make([]octosql.Value, 0, file.pf.NumRows())
	}

	// Only the column chunks of requested columns are read and decompressed.
	buffer := make([]parquet.Value, readBatchSize)
	for _, rowGroup := range file.pf.RowGroups() {
		chunks := rowGroup.ColumnChunks()
		for i, name := range columns {
			if values[i], err = readColumnChunk(chunks[outIndex[i]], types[name], buffer, values[i]); err != nil {
				return nil, errors.Wrapf(err, "couldn't read column %s", name)
			}
		}
	}

	if len(columns) == 0 {
		return execution.NewEmptyTable(int(file.pf.NumRows())), nil
	}
	out := make([]*execution.Column, len(columns))
	for i, name := range columns {
		out[i] = execution.NewColumn(name, types[name], values[i])
	}
	return execution.NewTable(out...)
}

func readColumnChunk(chunk parquet.ColumnChunk, t octosql.Type, buffer []parquet.Value, out []octosql.Value) ([]octosql.Value, error) {
	pages := chunk.Pages()
	defer pages.Close()
	for {
		page, err := pages.ReadPage()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, octosql.WrapIOError(err, "couldn't read page")
		}
		reader := page.Values()
		for {
			n, err := reader.ReadValues(buffer)
			for _, value := range buffer[:n] {
				decoded, decodeErr := decodeValue(t, value)
				if decodeErr != nil {
					return nil, errors.Wrap(decodeErr, "couldn't decode value")
				}
				out = append(out, decoded)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, octosql.WrapIOError(err, "couldn't read values")
			}
		}
	}
}

func decodeValue(t octosql.Type, value parquet.Value) (octosql.Value, error) {
	if value.IsNull() {
		return octosql.NewNull(), nil
	}
	switch octosql.WithoutNull(t).TypeID {
	case octosql.TypeIDInt:
		return octosql.NewInt(int(value.Int64())), nil
	case octosql.TypeIDTime:
		return octosql.NewTime(time.Unix(0, value.Int64()).UTC()), nil
	case octosql.TypeIDFloat:
		return octosql.NewFloat(value.Double()), nil
	case octosql.TypeIDBoolean:
		return octosql.NewBoolean(value.Boolean()), nil
	case octosql.TypeIDString:
		return octosql.NewString(string(value.ByteArray())), nil
	case octosql.TypeIDList, octosql.TypeIDStruct:
		return unmarshalNested(octosql.WithoutNull(t), value.ByteArray())
	}
	return octosql.NewNull(), nil
}

// Datasource scans a parquet file, decoding only the requested columns.
type Datasource struct {
	path string
}

func NewDatasource(path string) *Datasource {
	return &Datasource{
		path: path,
	}
}

func (d *Datasource) Schema() (physical.Schema, error) {
	file, err := open(d.path)
	if err != nil {
		return physical.Schema{}, err
	}
	defer file.f.Close()

	fields := make([]physical.SchemaField, len(file.metadata.Columns))
	for i, column := range file.metadata.Columns {
		fields[i] = physical.SchemaField{Name: column.Name, Type: column.Type}
	}
	return physical.NewSchema(fields), nil
}

func (d *Datasource) Materialize(ctx context.Context, env physical.Environment, columns []string) (execution.Node, error) {
	return nodes.NewScanSource(d, columns), nil
}

func (d *Datasource) Scan(ctx execution.Context, columns []string) (*execution.Table, error) {
	return Read(d.path, columns)
}
