package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ScanConfig configures the network scan domain.
type ScanConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Target  string `mapstructure:"target"`
	Ports   string `mapstructure:"ports"`
}

// Config holds the inventory collector configuration.
type Config struct {
	OutputDir       string        `mapstructure:"output_dir"`
	ConsolidatedDir string        `mapstructure:"consolidated_dir"`
	DateLayout      string        `mapstructure:"date_layout"`
	Scan            ScanConfig    `mapstructure:"scan"`
	DatabasePath    string        `mapstructure:"database"`
	RetentionDays   int           `mapstructure:"retention_days"`
	PurgeInterval   time.Duration `mapstructure:"purge_interval"`
	Listen          string        `mapstructure:"listen"`
	GRPCListen      string        `mapstructure:"grpc_listen"`
	EnableSwagger   bool          `mapstructure:"enable_swagger"`
	ApiSecret       string        `mapstructure:"api_secret"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
}

// Retention returns the history retention window, zero when disabled.
func (c *Config) Retention() time.Duration {
	if c.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Load reads configuration from file and environment.
func Load(cfgFile string) (*Config, error) {
	return load(viper.New(), cfgFile)
}

func load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("sysinventory")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/sysinventory")
	}

	v.SetDefault("output_dir", "Archivos-JSON")
	v.SetDefault("consolidated_dir", ".")
	v.SetDefault("date_layout", "2006-01-02")
	v.SetDefault("scan.enabled", true)
	v.SetDefault("scan.target", "127.0.0.1")
	v.SetDefault("scan.ports", "0-1023")
	v.SetDefault("database", "")
	v.SetDefault("retention_days", 0)
	v.SetDefault("purge_interval", "24h")
	v.SetDefault("listen", ":9660")
	v.SetDefault("grpc_listen", ":9661")
	v.SetDefault("enable_swagger", true)
	v.SetDefault("api_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("SYSINVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// A missing default config file is fine; a broken or missing explicit one is not.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
