// Package config loads service configuration from an optional YAML file,
// a .env file and BENEFIT_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/benefit-engine/benefit"
	"github.com/warp/benefit-engine/factory"
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/logging"
	"github.com/warp/benefit-engine/region"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BENEFIT_"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Benefit BenefitConfig `yaml:"benefit"`
	Assist  AssistConfig  `yaml:"assist"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// BenefitConfig carries the defaults of a run. Period bounds are ISO dates
// and may be left empty when every run supplies its own period.
type BenefitConfig struct {
	PeriodStart      string   `yaml:"period_start"`
	PeriodEnd        string   `yaml:"period_end"`
	Competence       string   `yaml:"competence"`
	CutoffDay        int      `yaml:"cutoff_day"`
	EmployerShare    float64  `yaml:"employer_share"`
	ExcludedRoles    []string `yaml:"excluded_roles"`
	ExcludedStatuses []string `yaml:"excluded_statuses"`
	RegionsFile      string   `yaml:"regions_file"`
}

type AssistConfig struct {
	SampleSize int `yaml:"sample_size"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{SQLitePath: "./data/benefit.db"},
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true},
		Benefit: BenefitConfig{
			CutoffDay:        benefit.DefaultCutoffDay,
			EmployerShare:    generic.EmployerShare.InexactFloat64(),
			ExcludedRoles:    append([]string(nil), benefit.DefaultExcludedRoles...),
			ExcludedStatuses: append([]string(nil), benefit.DefaultExcludedStatuses...),
		},
		Assist: AssistConfig{SampleSize: 5},
	}
}

// Load reads path (optional), then .env, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = splitList(v)
		}
	}

	str("SQLITE_PATH", &c.Storage.SQLitePath)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("PERIOD_START", &c.Benefit.PeriodStart)
	str("PERIOD_END", &c.Benefit.PeriodEnd)
	str("COMPETENCE", &c.Benefit.Competence)
	str("REGIONS_FILE", &c.Benefit.RegionsFile)
	list("EXCLUDED_ROLES", &c.Benefit.ExcludedRoles)
	list("EXCLUDED_STATUSES", &c.Benefit.ExcludedStatuses)

	var err error
	if c.Server.Port, err = envInt("PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Benefit.CutoffDay, err = envInt("CUTOFF_DAY", c.Benefit.CutoffDay); err != nil {
		return err
	}
	if c.Assist.SampleSize, err = envInt("ASSIST_SAMPLE_SIZE", c.Assist.SampleSize); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvPrefix + "EMPLOYER_SHARE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %sEMPLOYER_SHARE: %q", EnvPrefix, v)
		}
		c.Benefit.EmployerShare = f
	}
	if v, ok := os.LookupEnv(EnvPrefix + "METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: invalid value for %sMETRICS_ENABLED: %q", EnvPrefix, v)
		}
		c.Metrics.Enabled = b
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("config: invalid value for %s%s: expected an integer, got %q", EnvPrefix, key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	if c.Benefit.CutoffDay < 1 || c.Benefit.CutoffDay > 31 {
		return fmt.Errorf("config: benefit.cutoff_day must be in 1..31, got %d", c.Benefit.CutoffDay)
	}
	if c.Benefit.EmployerShare < 0 || c.Benefit.EmployerShare > 1 {
		return fmt.Errorf("config: benefit.employer_share must be in [0, 1], got %v", c.Benefit.EmployerShare)
	}
	if _, _, err := c.Period(); err != nil {
		return err
	}
	return nil
}

// Period returns the configured default period. ok is false when no
// period is configured.
func (c *Config) Period() (p generic.Period, ok bool, err error) {
	b := c.Benefit
	if b.PeriodStart == "" && b.PeriodEnd == "" {
		return generic.Period{}, false, nil
	}
	start, err := generic.ParseISODate(b.PeriodStart)
	if err != nil {
		return generic.Period{}, false, fmt.Errorf("config: %w: period_start %q", generic.ErrInvalidPeriod, b.PeriodStart)
	}
	end, err := generic.ParseISODate(b.PeriodEnd)
	if err != nil {
		return generic.Period{}, false, fmt.Errorf("config: %w: period_end %q", generic.ErrInvalidPeriod, b.PeriodEnd)
	}
	p, err = generic.NewPeriod(start, end)
	if err != nil {
		return generic.Period{}, false, fmt.Errorf("config: %w", err)
	}
	return p, true, nil
}

// Competence is the configured label, or the label derived from period.
func (c *Config) Competence(period generic.Period) string {
	if c.Benefit.Competence != "" {
		return c.Benefit.Competence
	}
	return period.CompetenceLabel()
}

// Rules builds engine rules for period.
func (c *Config) Rules(period generic.Period) benefit.Rules {
	r := benefit.DefaultRules(period)
	r.CutoffDay = c.Benefit.CutoffDay
	r.EmployerShare = decimal.NewFromFloat(c.Benefit.EmployerShare)
	if len(c.Benefit.ExcludedRoles) > 0 {
		r.ExcludedRoles = append([]string(nil), c.Benefit.ExcludedRoles...)
	}
	if len(c.Benefit.ExcludedStatuses) > 0 {
		r.ExcludedStatuses = append([]string(nil), c.Benefit.ExcludedStatuses...)
	}
	return r
}

// Regions loads the regions file, or the built-in preset when none is set.
func (c *Config) Regions() (*region.Table, error) {
	if c.Benefit.RegionsFile == "" {
		return factory.DefaultTable(), nil
	}
	t, err := factory.NewRegionFactory().LoadFile(c.Benefit.RegionsFile)
	if err != nil {
		return nil, fmt.Errorf("config: regions: %w", err)
	}
	return t, nil
}

// Logging converts the log section for logging.New.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
