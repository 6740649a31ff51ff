package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks the environment variables read by LoadConfig.
const EnvPrefix = "RENOTHERM_"

type Config struct {
	Project     ProjectConfig           `koanf:"project"`
	Presets     map[string]PresetConfig `koanf:"presets"`
	PresetsFile string                  `koanf:"presets_file"` // xlsx workbook, one sheet per preset
	Log         LogConfig               `koanf:"log"`
	Controllers struct {
		HTTP   HTTPConfig   `koanf:"http"`
		MQTT   MQTTConfig   `koanf:"mqtt"`
		MODBUS ModbusConfig `koanf:"modbus"`
	} `koanf:"controllers"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `koanf:"format"` // "json" | "console"
}

type HTTPConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Addr      string  `koanf:"addr"`
	RateLimit float64 `koanf:"rate_limit"` // requests per second per client, 0 disables
	RateBurst int     `koanf:"rate_burst"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BrokerURL       string        `koanf:"broker_url"`
	ClientID        string        `koanf:"client_id"`
	BaseTopic       string        `koanf:"base_topic"`
	QoS             byte          `koanf:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	UnitID  byte   `koanf:"unit_id"`
}

// LoadConfig layers the built-in defaults, the config file at path (.yaml,
// .yml or .json; a missing file is ignored) and RENOTHERM_* variables.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return Config{}, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
}

// envKeyTransform maps an environment key (prefix removed) to a config path:
// CONTROLLERS_HTTP_ADDR -> controllers.http.addr,
// PROJECT_BEFORE_RSI -> project.before.rsi, LOG_LEVEL -> log.level.
// Keys outside a known section are only lowercased.
func envKeyTransform(s string) string {
	k := strings.ToLower(strings.TrimSpace(s))
	if k == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(k, "controllers_"); ok {
		ctrl, field, ok := strings.Cut(rest, "_")
		if !ok {
			return k
		}
		return "controllers." + ctrl + "." + field
	}

	if rest, ok := strings.CutPrefix(k, "project_"); ok {
		for _, stage := range []string{"before", "after"} {
			if field, ok := strings.CutPrefix(rest, stage+"_"); ok {
				return "project." + stage + "." + field
			}
		}
		return "project." + rest
	}

	if rest, ok := strings.CutPrefix(k, "log_"); ok {
		return "log." + rest
	}

	return k
}

func applyDefaults(cfg *Config) {
	if cfg.Project.ID == "" {
		cfg.Project.ID = "default"
	}
	if cfg.Controllers.HTTP.Addr == "" {
		cfg.Controllers.HTTP.Addr = ":8080"
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv(EnvPrefix+"CONTROLLERS_HTTP_ADDR") == "" {
		// listen on all interfaces on that port
		cfg.Controllers.HTTP.Addr = ":" + v
	}
	if !cfg.Controllers.HTTP.Enabled && !cfg.Controllers.MQTT.Enabled && !cfg.Controllers.MODBUS.Enabled {
		cfg.Controllers.HTTP.Enabled = true
	}
	if cfg.Controllers.MQTT.PublishInterval == 0 {
		cfg.Controllers.MQTT.PublishInterval = 1 * time.Second
	}
	if cfg.Controllers.MODBUS.UnitID == 0 {
		cfg.Controllers.MODBUS.UnitID = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
