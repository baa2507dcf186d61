package config

import (
	"errors"
	"io/fs"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RulesConfig carries the thresholds used to derive notifications.
type RulesConfig struct {
	LowStockThreshold int `mapstructure:"lowStockThreshold"`
	PromoExpiringDays int `mapstructure:"promoExpiringDays"`
}

func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		LowStockThreshold: 10,
		PromoExpiringDays: 7,
	}
}

type RulesHolder struct {
	current atomic.Value // holds RulesConfig
}

// NewStaticRules returns a holder that never reloads.
func NewStaticRules(cfg RulesConfig) *RulesHolder {
	holder := &RulesHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewRulesHolder(cfg Config, log *zap.Logger) (*RulesHolder, error) {
	log = log.Named("config.rules")
	v := viper.New()

	if path := strings.TrimSpace(cfg.RulesPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rules")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/scanprice")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCANPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRulesConfig()
	v.SetDefault("rules.lowStockThreshold", defaults.LowStockThreshold)
	v.SetDefault("rules.promoExpiringDays", defaults.PromoExpiringDays)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		fileLoaded = false
	}

	var rules RulesConfig
	if err := v.UnmarshalKey("rules", &rules); err != nil {
		return nil, err
	}
	if err := validateRulesConfig(rules); err != nil {
		return nil, err
	}

	holder := NewStaticRules(rules)

	if fileLoaded && cfg.RulesWatch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated RulesConfig
			if err := v.UnmarshalKey("rules", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateRulesConfig(updated); err != nil {
				log.Warn("invalid rules ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("rules reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *RulesHolder) Get() RulesConfig {
	return h.current.Load().(RulesConfig)
}

func validateRulesConfig(cfg RulesConfig) error {
	if cfg.LowStockThreshold < 0 {
		return errors.New("rules.lowStockThreshold cannot be negative")
	}
	if cfg.PromoExpiringDays < 1 {
		return errors.New("rules.promoExpiringDays must be at least 1")
	}
	return nil
}
