package providers

import (
	"testing"
	"time"
	"timekeeper/internal/structures"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: structures.DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "/tmp/tk.db",
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		FlowCache: structures.FlowCacheConfig{Size: 8, TTL: 5 * time.Minute},
		Quota:     structures.QuotaConfig{FreeEvents: 25, PremiumEvents: 250},
		Backup: structures.BackupConfig{
			Enabled:  true,
			FilePath: "/tmp/tk.backup",
			Interval: 10 * time.Minute,
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_Rejects(t *testing.T) {
	cases := map[string]func(c *structures.Config){
		"empty host":           func(c *structures.Config) { c.WebServer.Host = "" },
		"zero port":            func(c *structures.Config) { c.WebServer.Port = 0 },
		"empty log level":      func(c *structures.Config) { c.Logger.Level = "" },
		"invalid log level":    func(c *structures.Config) { c.Logger.Level = "verbose" },
		"unknown driver":       func(c *structures.Config) { c.Database.Driver = "mysql" },
		"empty dsn":            func(c *structures.Config) { c.Database.DSN = "" },
		"zero cache size":      func(c *structures.Config) { c.FlowCache.Size = 0 },
		"negative quota":       func(c *structures.Config) { c.Quota.FreeEvents = -1 },
		"backup without file":  func(c *structures.Config) { c.Backup.FilePath = "" },
		"backup zero interval": func(c *structures.Config) { c.Backup.Interval = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			assert.Error(t, NewCnfValidator(c).Validate())
		})
	}
}

func TestConfigValidator_BackupDisabledSkipsBackupFields(t *testing.T) {
	c := validConfig()
	c.Backup = structures.BackupConfig{}
	assert.NoError(t, NewCnfValidator(c).Validate())
}
