package analysis

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/dataframe"
	"github.com/cube2222/octogeo/geo"
	"github.com/cube2222/octogeo/logical"
)

// Step is a single query operation. Eager execution materializes after each one.
type Step func(dataframe.LazyFrame) dataframe.LazyFrame

type Report struct {
	Name  string
	Title string
	Steps []Step
}

// Lazy builds the whole report as one plan.
func (r Report) Lazy(lf dataframe.LazyFrame) dataframe.LazyFrame {
	for _, step := range r.Steps {
		lf = step(lf)
	}
	return lf
}

func (r Report) Eager(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	for i, step := range r.Steps {
		var err error
		if df, err = df.Apply(ctx, step); err != nil {
			return dataframe.DataFrame{}, errors.Wrapf(err, "couldn't run step %d of %s", i, r.Name)
		}
	}
	return df, nil
}

// Reports is the full report set, each prefixed with the feature derivation.
func Reports(ref Reference) []Report {
	features := Features(ref)
	reports := []Report{
		FloorAreaDistribution(),
		TallBuildings(),
		HeightByYear(),
		DensityByDistance(),
		NearBuildings(),
		CreationYearCounts(),
	}
	for i := range reports {
		reports[i].Steps = append(append([]Step{}, features...), reports[i].Steps...)
	}
	return reports
}

func Lookup(reports []Report, name string) (Report, bool) {
	for _, report := range reports {
		if report.Name == name {
			return report, true
		}
	}
	return Report{}, false
}

func FloorAreaDistribution() Report {
	area := logical.Col("GROSSFLOORAREA")
	return Report{
		Name:  "floor-area",
		Title: "Floor Area Distribution (in sq meters)",
		Steps: []Step{
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Filter(area.IsNotNull()) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.WithColumns(geo.Bucket(area, 1000)) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.GroupBy(logical.Col("GROSSFLOORAREA_bucket")).Agg(logical.Col("OBJECTID").Count().Alias("count"))
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Sort(dataframe.Desc(logical.Col("count"))) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Limit(10) },
		},
	}
}

func TallBuildings() Report {
	height := logical.Col("TOPHEIGHT")
	storeys := logical.Col("NUMABOVEGROUNDSTOREYS")
	name := logical.Col("OFFICIALBUILDINGNAMEEN")
	return Report{
		Name:  "tall-buildings",
		Title: "Tallest Buildings (>100m)",
		Steps: []Step{
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Filter(height.Gt(logical.Lit(100.0))) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Filter(storeys.Gt(logical.Lit(50.0))) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Select(name, height, storeys) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Sort(dataframe.Desc(height)) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.DropNulls("OFFICIALBUILDINGNAMEEN", "NUMABOVEGROUNDSTOREYS")
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Limit(10) },
		},
	}
}

func HeightByYear() Report {
	return Report{
		Name:  "height-by-year",
		Title: "Average Building Height by record creation period",
		Steps: []Step{
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Filter(logical.Col("TOPHEIGHT").IsNotNull()) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.GroupBy(logical.Col("creation_year")).Agg(
					logical.Col("TOPHEIGHT").Mean().Alias("avg_height"),
					logical.Col("OBJECTID").Count().Alias("building_count"),
				)
			},
			// Years with few buildings are noise.
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.Filter(logical.Col("building_count").Gt(logical.Lit(100)))
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Sort(dataframe.Asc(logical.Col("creation_year"))) },
		},
	}
}

// DensityByDistance sorts the buckets by their numeric start, so "10-11" comes after "9-10".
func DensityByDistance() Report {
	distance := logical.Col("distance_km")
	return Report{
		Name:  "density",
		Title: "Building Density Analysis",
		Steps: []Step{
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.WithColumns(geo.Bucket(distance, 1), geo.BucketStart(distance, 1))
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.GroupBy(logical.Col("distance_km_bucket"), logical.Col("distance_km_bucket_start")).Agg(
					logical.Col("OBJECTID").Count().Alias("building_count"),
					logical.Col("TOPHEIGHT").Mean().Alias("avg_height"),
					logical.Col("GROSSFLOORAREA").Mean().Alias("avg_floor_area"),
				)
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.Sort(dataframe.Asc(logical.Col("distance_km_bucket_start")))
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.Select(
					logical.Col("distance_km_bucket"),
					logical.Col("building_count"),
					logical.Col("avg_height"),
					logical.Col("avg_floor_area"),
				)
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Limit(10) },
		},
	}
}

func NearBuildings() Report {
	area := logical.Col("GROSSFLOORAREA")
	return Report{
		Name:  "near-buildings",
		Title: "Floor Area Distribution within 10km",
		Steps: []Step{
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.Filter(logical.Col("distance_km").Lt(logical.Lit(10.0)))
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.WithColumns(geo.Bucket(area, 1000)) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.GroupBy(logical.Col("GROSSFLOORAREA_bucket")).Agg(logical.Col("OBJECTID").Count().Alias("count"))
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Sort(dataframe.Desc(logical.Col("count"))) },
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.DropNulls() },
		},
	}
}

func CreationYearCounts() Report {
	return Report{
		Name:  "creation-years",
		Title: "Buildings by record creation year",
		Steps: []Step{
			func(lf dataframe.LazyFrame) dataframe.LazyFrame {
				return lf.GroupBy(logical.Col("creation_year")).Agg(logical.Col("OBJECTID").Count().Alias("OBJECTID_count"))
			},
			func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Sort(dataframe.Desc(logical.Col("OBJECTID_count"))) },
		},
	}
}
