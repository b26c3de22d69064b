package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/octogeo/dataset"
)

var OctogeoCacheDir = func() string {
	dir, err := homedir.Dir()
	if err != nil {
		log.Fatalf("couldn't get user home directory: %s", err)
	}
	return filepath.Join(dir, ".octogeo")
}()

func DefaultPath() string {
	return filepath.Join(OctogeoCacheDir, "octogeo.yml")
}

type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset"`
	Execution ExecutionConfig `yaml:"execution"`
	Reference ReferenceConfig `yaml:"reference"`
}

type DatasetConfig struct {
	URL       string            `yaml:"url"`
	Directory string            `yaml:"directory"`
	Name      string            `yaml:"name"`
	Timeout   time.Duration     `yaml:"timeout"`
	Headers   map[string]string `yaml:"headers"`
}

type ExecutionConfig struct {
	Parallelism int `yaml:"parallelism"`
	ChunkSize   int `yaml:"chunk_size"`
}

// ReferenceConfig is the point distances are measured from.
type ReferenceConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

const (
	DefaultName      = "buildings"
	DefaultChunkSize = 16384
	DefaultLatitude  = 22.2878391
	DefaultLongitude = 114.1441448
)

func Default() *Config {
	cfg := &Config{
		Dataset: DatasetConfig{
			URL:       dataset.DefaultURL,
			Directory: filepath.Join(OctogeoCacheDir, "data"),
			Name:      DefaultName,
			Timeout:   dataset.DefaultTimeout,
			Headers:   make(map[string]string, len(dataset.DefaultHeaders)),
		},
		Execution: ExecutionConfig{
			Parallelism: runtime.GOMAXPROCS(0),
			ChunkSize:   DefaultChunkSize,
		},
		Reference: ReferenceConfig{
			Latitude:  DefaultLatitude,
			Longitude: DefaultLongitude,
		},
	}
	for k, v := range dataset.DefaultHeaders {
		cfg.Dataset.Headers[k] = v
	}
	return cfg
}

// Read reads the configuration at path.
// Fields missing from the file keep their defaults, and a missing file means all defaults.
func Read(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "couldn't read config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Dataset.Name == "" {
		return errors.New("dataset.name can't be empty")
	}
	if cfg.Execution.Parallelism < 0 {
		return errors.Errorf("execution.parallelism must be non-negative, is %d", cfg.Execution.Parallelism)
	}
	if cfg.Execution.ChunkSize <= 0 {
		return errors.Errorf("execution.chunk_size must be positive, is %d", cfg.Execution.ChunkSize)
	}
	if cfg.Reference.Latitude < -90 || cfg.Reference.Latitude > 90 {
		return errors.Errorf("reference.latitude out of range: %f", cfg.Reference.Latitude)
	}
	if cfg.Reference.Longitude < -180 || cfg.Reference.Longitude > 180 {
		return errors.Errorf("reference.longitude out of range: %f", cfg.Reference.Longitude)
	}
	return nil
}
