package config

import (
	"fmt"
	"time"
)

// Default service configuration values.
const (
	defaultServiceName    = "supply-chain-etl"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8091
	defaultLogLevel       = "info"
)

// Default pipeline configuration values.
const (
	defaultIntakeDir     = "data/stream"
	defaultProcessedDir  = "data/processed"
	defaultRawDir        = "data/raw"
	defaultWarehousePath = "data/warehouse/supplychain.db"
	defaultCycleInterval = 30 * time.Second
	defaultOnTimeHours   = 24.0
	minPort              = 1
	maxPort              = 65535
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service identity and runtime settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"HTTPD_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"  yaml:"debug"`
}

// PipelineConfig holds the intake, processed-store and cycle settings.
type PipelineConfig struct {
	IntakeDir            string        `env:"INTAKE_DIR"              yaml:"intake_dir"`
	ProcessedDir         string        `env:"PROCESSED_DIR"           yaml:"processed_dir"`
	RawDir               string        `env:"RAW_DIR"                 yaml:"raw_dir"`
	CycleInterval        time.Duration `env:"CYCLE_INTERVAL"          yaml:"cycle_interval"`
	OnTimeThresholdHours float64       `env:"ON_TIME_THRESHOLD_HOURS" yaml:"on_time_threshold_hours"`
	RetainProcessed      bool          `env:"RETAIN_PROCESSED"        yaml:"retain_processed"`
}

// WarehouseConfig holds the SQLite warehouse settings.
type WarehouseConfig struct {
	Path string `env:"WAREHOUSE_PATH" yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// Load loads configuration from a YAML file, applies defaults, then env
// overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if loadErr := load(path, cfg); loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	cfg.setDefaults()
	// Env always wins, including over defaults.
	applyEnvOverrides(cfg)

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Service.Port < minPort || c.Service.Port > maxPort {
		return fmt.Errorf("service.port: must be between %d and %d", minPort, maxPort)
	}

	if c.Pipeline.IntakeDir == "" {
		return fmt.Errorf("pipeline.intake_dir: is required")
	}

	if c.Pipeline.ProcessedDir == "" {
		return fmt.Errorf("pipeline.processed_dir: is required")
	}

	if c.Warehouse.Path == "" {
		return fmt.Errorf("warehouse.path: is required")
	}

	if c.Pipeline.CycleInterval <= 0 {
		return fmt.Errorf("pipeline.cycle_interval: must be positive")
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = defaultServiceVersion
	}
	if c.Service.Port == 0 {
		c.Service.Port = defaultServicePort
	}

	if c.Pipeline.IntakeDir == "" {
		c.Pipeline.IntakeDir = defaultIntakeDir
	}
	if c.Pipeline.ProcessedDir == "" {
		c.Pipeline.ProcessedDir = defaultProcessedDir
	}
	if c.Pipeline.RawDir == "" {
		c.Pipeline.RawDir = defaultRawDir
	}
	if c.Pipeline.CycleInterval == 0 {
		c.Pipeline.CycleInterval = defaultCycleInterval
	}
	if c.Pipeline.OnTimeThresholdHours == 0 {
		c.Pipeline.OnTimeThresholdHours = defaultOnTimeHours
	}

	if c.Warehouse.Path == "" {
		c.Warehouse.Path = defaultWarehousePath
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
