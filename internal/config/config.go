// Package config loads the service configuration. Sources are layered, later
// ones winning: built-in defaults, a YAML file, a .env file and the process
// environment (PART66_ prefix, "__" between section and key), then
// command-line flags. List values in the environment are comma separated.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/part66/internal/srs"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PART66_"

type Config struct {
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Study    StudyConfig    `koanf:"study"`
	Sources  SourcesConfig  `koanf:"sources"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=sqlite postgres"`
	DSN    string `koanf:"dsn" validate:"required"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type StudyConfig struct {
	BatchSize        int           `koanf:"batch_size" validate:"gte=1,lte=500"`
	MasteryThreshold int           `koanf:"mastery_threshold" validate:"gte=1"`
	IntervalDays     []int         `koanf:"interval_days" validate:"required,min=1,dive,gte=1"`
	AbandonAfter     time.Duration `koanf:"abandon_after" validate:"gt=0"`
	SweepEvery       time.Duration `koanf:"sweep_every" validate:"gt=0"`
}

type SourcesConfig struct {
	ReposDir  string        `koanf:"repos_dir" validate:"required"`
	SyncEvery time.Duration `koanf:"sync_every" validate:"gte=0"`
}

// AuthConfig lists the users allowed to manage sources and moderate cards.
type AuthConfig struct {
	Admins []string `koanf:"admins" validate:"dive,required"`
}

// IsAdmin reports whether userID is on the admin list.
func (c AuthConfig) IsAdmin(userID string) bool {
	return userID != "" && slices.Contains(c.Admins, userID)
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "part66.db"},
		HTTP:     HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Study: StudyConfig{
			BatchSize:        20,
			MasteryThreshold: 3,
			IntervalDays:     []int{1, 3, 7, 14, 30, 60, 120},
			AbandonAfter:     2 * time.Hour,
			SweepEvery:       5 * time.Minute,
		},
		Sources: SourcesConfig{ReposDir: "repos"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Policy builds the scheduler policy described by the study section.
func (c StudyConfig) Policy() *srs.Policy {
	p := &srs.Policy{MasteryThreshold: c.MasteryThreshold}
	for _, d := range c.IntervalDays {
		p.Intervals = append(p.Intervals, time.Duration(d)*24*time.Hour)
	}
	return p
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"db-driver":     "database.driver",
	"db-dsn":        "database.dsn",
	"addr":          "http.addr",
	"batch-size":    "study.batch_size",
	"abandon-after": "study.abandon_after",
	"repos-dir":     "sources.repos_dir",
	"sync-every":    "sources.sync_every",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// RegisterFlags adds the configuration flags to flags. Their defaults mirror
// Default.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("env-file", ".env", "Path to a .env file; missing files are ignored")
	flags.String("db-driver", d.Database.Driver, "Database driver: sqlite or postgres")
	flags.String("db-dsn", d.Database.DSN, "Database file path (sqlite) or connection string (postgres)")
	flags.String("addr", d.HTTP.Addr, "HTTP listen address")
	flags.Int("batch-size", d.Study.BatchSize, "Default number of cards per study session")
	flags.Duration("abandon-after", d.Study.AbandonAfter, "Idle time after which a session is finalized")
	flags.String("repos-dir", d.Sources.ReposDir, "Directory for git source checkouts")
	flags.Duration("sync-every", d.Sources.SyncEvery, "Interval between background source syncs (0 disables)")
	flags.String("log-level", d.Log.Level, "Log level: debug, info, warn or error")
	flags.String("log-format", d.Log.Format, "Log format: text or json")
}

// Load resolves the configuration from every layer and validates it. flags
// must have been set up with RegisterFlags and parsed.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envFile, _ := flags.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	cfg := Default()
	if k.Exists("study.interval_days") {
		cfg.Study.IntervalDays = nil
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the configuration keys holding lists.
var listKeys = map[string]bool{
	"study.interval_days": true,
	"auth.admins":         true,
}

// envKey turns PART66_STUDY__BATCH_SIZE into study.batch_size.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// envValue maps an environment variable onto its key, splitting list values.
func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// Validate checks field constraints and the derived scheduler policy.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Study.Policy().Validate(); err != nil {
		return fmt.Errorf("invalid config: study: %w", err)
	}
	return nil
}
