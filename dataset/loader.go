package dataset

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/datasources/geojson"
	"github.com/cube2222/octogeo/datasources/parquet"
	"github.com/cube2222/octogeo/octosql"
)

// Loader keeps a flattened parquet copy of the geojson document next to it.
// The parquet file is used if present, otherwise it's derived from the document, which is fetched if missing.
type Loader struct {
	Directory string
	Name      string
	Fetcher   Fetcher
}

func (l *Loader) GeoJSONPath() string {
	return filepath.Join(l.Directory, l.Name+".geojson")
}

func (l *Loader) ParquetPath() string {
	return filepath.Join(l.Directory, l.Name+".parquet")
}

// EnsurePresent makes sure the parquet file exists.
func (l *Loader) EnsurePresent(ctx context.Context) error {
	if _, err := os.Stat(l.ParquetPath()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return octosql.WrapIOError(err, "couldn't stat parquet file")
	}

	if err := l.Fetcher.EnsurePresent(ctx, l.GeoJSONPath()); err != nil {
		return errors.Wrap(err, "couldn't fetch geojson document")
	}

	start := time.Now()
	table, err := geojson.ReadFile(l.GeoJSONPath())
	if err != nil {
		return errors.Wrap(err, "couldn't flatten geojson document")
	}
	if err := parquet.Write(l.ParquetPath(), table); err != nil {
		return errors.Wrap(err, "couldn't write parquet file")
	}
	log.Printf("flattened %d features into %s in %s", table.NumRows(), l.ParquetPath(), time.Since(start))
	return nil
}

// Load returns a datasource reading the parquet file.
func (l *Loader) Load(ctx context.Context) (*parquet.Datasource, error) {
	if err := l.EnsurePresent(ctx); err != nil {
		return nil, err
	}
	return parquet.NewDatasource(l.ParquetPath()), nil
}
