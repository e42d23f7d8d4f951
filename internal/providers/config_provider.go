package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
	"time"
	"timekeeper/internal/structures"
)

const DefaultFlowTTL = 5 * time.Minute

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	v := viper.New()
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("flowCache.size", 8)
	v.SetDefault("flowCache.ttl", DefaultFlowTTL)
	v.SetDefault("quota.freeEvents", 25)
	v.SetDefault("quota.premiumEvents", 250)

	v.BindEnv("logger.level", "TK_LOG_LEVEL")
	v.BindEnv("database.driver", "TK_DB_DRIVER")
	v.BindEnv("database.dsn", "TK_DB_DSN")
	v.BindEnv("quota.freeEvents", "TK_QUOTA_FREE")
	v.BindEnv("quota.premiumEvents", "TK_QUOTA_PREMIUM")
	v.BindEnv("backup.enabled", "TK_BACKUP_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	if conf.FlowCache.TTL <= 0 {
		conf.FlowCache.TTL = DefaultFlowTTL
	}
	conf.AppName = "Timekeeper"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
