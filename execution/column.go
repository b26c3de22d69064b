package execution

import (
	"github.com/cube2222/octogeo/octosql"
)

// Column is an immutable, named, typed sequence of values, split into contiguous chunks.
type Column struct {
	Name   string
	Type   octosql.Type
	Chunks [][]octosql.Value
	length int
}

// NewColumn splits values into chunks of IdealChunkSize.
func NewColumn(name string, t octosql.Type, values []octosql.Value) *Column {
	return NewColumnWithChunkSize(name, t, values, IdealChunkSize)
}

func NewColumnWithChunkSize(name string, t octosql.Type, values []octosql.Value, chunkSize int) *Column {
	if chunkSize <= 0 {
		chunkSize = IdealChunkSize
	}
	chunks := make([][]octosql.Value, 0, len(values)/chunkSize+1)
	for start := 0; start < len(values); start += chunkSize {
		end := start + chunkSize
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end:end])
	}
	return &Column{
		Name:   name,
		Type:   t,
		Chunks: chunks,
		length: len(values),
	}
}

// NewChunkedColumn takes ownership of the given chunks.
func NewChunkedColumn(name string, t octosql.Type, chunks [][]octosql.Value) *Column {
	length := 0
	nonEmpty := make([][]octosql.Value, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		length += len(chunk)
		nonEmpty = append(nonEmpty, chunk)
	}
	return &Column{
		Name:   name,
		Type:   t,
		Chunks: nonEmpty,
		length: length,
	}
}

func (c *Column) Len() int {
	return c.length
}

// Value does a chunk lookup, use Chunks for sequential access.
func (c *Column) Value(i int) octosql.Value {
	for _, chunk := range c.Chunks {
		if i < len(chunk) {
			return chunk[i]
		}
		i -= len(chunk)
	}
	panic("column index out of range")
}

// Values returns the whole logical column as one slice.
func (c *Column) Values() []octosql.Value {
	if len(c.Chunks) == 1 {
		return c.Chunks[0]
	}
	out := make([]octosql.Value, 0, c.length)
	for _, chunk := range c.Chunks {
		out = append(out, chunk...)
	}
	return out
}

// Layout returns the lengths of the chunks.
func (c *Column) Layout() []int {
	out := make([]int, len(c.Chunks))
	for i := range c.Chunks {
		out[i] = len(c.Chunks[i])
	}
	return out
}

func (c *Column) HasLayout(layout []int) bool {
	if len(layout) != len(c.Chunks) {
		return false
	}
	for i := range layout {
		if layout[i] != len(c.Chunks[i]) {
			return false
		}
	}
	return true
}

// Rechunk returns a column with the same values split according to layout.
func (c *Column) Rechunk(layout []int) *Column {
	if c.HasLayout(layout) {
		return c
	}
	values := c.Values()
	chunks := make([][]octosql.Value, len(layout))
	offset := 0
	for i, size := range layout {
		chunks[i] = values[offset : offset+size : offset+size]
		offset += size
	}
	return &Column{
		Name:   c.Name,
		Type:   c.Type,
		Chunks: chunks,
		length: c.length,
	}
}

// Renamed shares the underlying chunks.
func (c *Column) Renamed(name string) *Column {
	return &Column{
		Name:   name,
		Type:   c.Type,
		Chunks: c.Chunks,
		length: c.length,
	}
}

func LayoutOf(rows int) []int {
	layout := make([]int, 0, rows/IdealChunkSize+1)
	for rows > 0 {
		size := IdealChunkSize
		if rows < size {
			size = rows
		}
		layout = append(layout, size)
		rows -= size
	}
	return layout
}
