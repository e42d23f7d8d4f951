package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required|in:sqlite,postgres"`
	DSN    string `yaml:"dsn" validate:"required"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type FlowCacheConfig struct {
	Size int           `yaml:"size" validate:"required|min:1"`
	TTL  time.Duration `yaml:"ttl"`
}

type QuotaConfig struct {
	FreeEvents    int `yaml:"freeEvents" validate:"min:0"`
	PremiumEvents int `yaml:"premiumEvents" validate:"min:0"`
}

type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	FilePath string        `yaml:"filePath"`
	Interval time.Duration `yaml:"interval"`
	Restore  bool          `yaml:"restore"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server          `yaml:"webServer"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    LoggerConfig    `yaml:"logger"`
	FlowCache FlowCacheConfig `yaml:"flowCache"`
	Quota     QuotaConfig     `yaml:"quota"`
	Backup    BackupConfig    `yaml:"backup"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}
