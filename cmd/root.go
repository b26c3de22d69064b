package cmd

import (
	"context"
	"log"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/cube2222/octogeo/config"
	"github.com/cube2222/octogeo/dataframe"
	"github.com/cube2222/octogeo/dataset"
	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/logs"
	"github.com/cube2222/octogeo/physical"
)

var (
	configPath  string
	profileMode string
	dataDir     string
)

var (
	cfg      *config.Config
	profiler interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "octogeo",
	Short: "Analytical reports over building footprints.",
	Long: `octogeo downloads a building footprint GeoJSON dataset, caches it as parquet
and runs geospatial group-by reports over it, lazily or eagerly.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logs.InitializeFileLogger()

		switch profileMode {
		case "":
		case "cpu":
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
		case "mem":
			profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
		case "trace":
			profiler = profile.Start(profile.TraceProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
		default:
			return errors.Errorf("invalid profile mode '%s', expected cpu, mem or trace", profileMode)
		}

		var err error
		if cfg, err = config.Read(configPath); err != nil {
			return errors.Wrap(err, "couldn't read config")
		}
		if dataDir != "" {
			cfg.Dataset.Directory = dataDir
		}
		execution.IdealChunkSize = cfg.Execution.ChunkSize
		log.Printf("using dataset %s in %s", cfg.Dataset.Name, cfg.Dataset.Directory)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
		logs.CloseLogger()
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the configuration file.")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "Write a profile to the current directory: cpu, mem or trace.")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Directory holding the dataset, overrides the configured one.")
}

func loader() *dataset.Loader {
	return &dataset.Loader{
		Directory: cfg.Dataset.Directory,
		Name:      cfg.Dataset.Name,
		Fetcher:   dataset.NewHTTPFetcher(cfg.Dataset.URL, cfg.Dataset.Headers, cfg.Dataset.Timeout),
	}
}

func environment() physical.Environment {
	return dataframe.DefaultEnvironment(cfg.Execution.Parallelism)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
