package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/filter"
	"github.com/pfrederiksen/perk-events/internal/mailer"
	"github.com/pfrederiksen/perk-events/internal/scraper"
	"github.com/pfrederiksen/perk-events/internal/store"
)

// Defaults
const (
	DefaultSnapshotDir = "~/.local/share/perk-events"
	DefaultAPIAddr     = ":8080"
	DefaultLogLevel    = "INFO"
	DefaultEnvFile     = ".env"
)

var (
	// ErrMissingConfig is returned when a required setting is empty.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrInvalidConfig is returned when a setting has an unusable value.
	ErrInvalidConfig = errors.New("invalid configuration")
)

var validate = newValidator()

// newValidator reports field errors by their environment variable name.
func newValidator() *validator.Validate {
	v := mailer.NewValidator()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// StoreConfig selects the event store backend.
type StoreConfig struct {
	Backend       string `yaml:"backend" env:"STORE_BACKEND" validate:"oneof=supabase postgres mongo memory"`
	SupabaseURL   string `yaml:"supabase_url" env:"SUPABASE_URL" validate:"required_if=Backend supabase"`
	SupabaseKey   string `yaml:"supabase_key" env:"SUPABASE_KEY" validate:"required_if=Backend supabase"`
	DatabaseURL   string `yaml:"database_url" env:"DATABASE_URL" validate:"required_if=Backend postgres"`
	MongoURI      string `yaml:"mongodb_uri" env:"MONGODB_URI" validate:"required_if=Backend mongo"`
	MongoDatabase string `yaml:"mongodb_database" env:"MONGODB_DATABASE"`
}

// MailConfig holds digest delivery settings.
type MailConfig struct {
	APIKey  string   `yaml:"resend_api_key" env:"RESEND_API_KEY"`
	From    string   `yaml:"from" env:"MAIL_FROM" validate:"required,mailbox"`
	To      []string `yaml:"to" env:"MAIL_TO" validate:"omitempty,dive,mailbox"`
	Subject string   `yaml:"subject" env:"MAIL_SUBJECT"`
}

// ScrapeConfig holds browser and listing settings.
type ScrapeConfig struct {
	ListingURL  string `yaml:"listing_url" env:"LISTING_URL" validate:"required,url"`
	BaseURL     string `yaml:"base_url" env:"LISTING_BASE_URL" validate:"required,url"`
	ChromePath  string `yaml:"chrome_path" env:"CHROME_PATH"`
	MaxLoadMore int    `yaml:"max_load_more" env:"MAX_LOAD_MORE" validate:"gte=0"`
	StrictDate  bool   `yaml:"strict_date" env:"STRICT_DATE"`
}

// Config is the full settings tree.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Mail   MailConfig   `yaml:"mail"`
	Scrape ScrapeConfig `yaml:"scrape"`

	CampusTimezone  string `yaml:"campus_timezone" env:"CAMPUS_TIMEZONE"`
	SnapshotDir     string `yaml:"snapshot_dir" env:"SNAPSHOT_DIR"`
	SubscribersFile string `yaml:"subscribers_file" env:"SUBSCRIBERS_FILE"`
	PushgatewayURL  string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL"`
	LogLevel        string `yaml:"log_level" env:"LOG_LEVEL"`
	APIAddr         string `yaml:"api_addr" env:"API_ADDR"`

	// APIAllowOrigins lists CORS origins for serve; empty allows any.
	APIAllowOrigins []string `yaml:"api_allow_origins" env:"API_ALLOW_ORIGINS"`
}

// LoadOptions points Load at optional files.
type LoadOptions struct {
	// File is a YAML settings file. Empty skips it.
	File string
	// EnvFile is a dotenv file loaded into the process environment without
	// overriding variables already set. Empty tries DefaultEnvFile and
	// ignores it when absent.
	EnvFile string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: store.BackendSupabase,
		},
		Scrape: ScrapeConfig{
			ListingURL:  scraper.ListingURL,
			BaseURL:     scraper.BaseURL,
			MaxLoadMore: scraper.DefaultMaxLoadMore,
			StrictDate:  true,
		},
		CampusTimezone: event.DefaultCampusTimezone,
		SnapshotDir:    DefaultSnapshotDir,
		LogLevel:       DefaultLogLevel,
		APIAddr:        DefaultAPIAddr,
	}
}

// Load builds the settings from defaults, the optional files and the
// environment.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if opts.File != "" {
		if err := cfg.loadFile(opts.File); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings with every non-empty variable getenv returns.
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"STORE_BACKEND":    &c.Store.Backend,
		"SUPABASE_URL":     &c.Store.SupabaseURL,
		"SUPABASE_KEY":     &c.Store.SupabaseKey,
		"DATABASE_URL":     &c.Store.DatabaseURL,
		"MONGODB_URI":      &c.Store.MongoURI,
		"MONGODB_DATABASE": &c.Store.MongoDatabase,
		"RESEND_API_KEY":   &c.Mail.APIKey,
		"MAIL_FROM":        &c.Mail.From,
		"MAIL_SUBJECT":     &c.Mail.Subject,
		"LISTING_URL":      &c.Scrape.ListingURL,
		"LISTING_BASE_URL": &c.Scrape.BaseURL,
		"CHROME_PATH":      &c.Scrape.ChromePath,
		"CAMPUS_TIMEZONE":  &c.CampusTimezone,
		"SNAPSHOT_DIR":     &c.SnapshotDir,
		"SUBSCRIBERS_FILE": &c.SubscribersFile,
		"PUSHGATEWAY_URL":  &c.PushgatewayURL,
		"LOG_LEVEL":        &c.LogLevel,
		"API_ADDR":         &c.APIAddr,
	}
	for name, dst := range strs {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}

	if v := getenv("MAIL_TO"); strings.TrimSpace(v) != "" {
		c.Mail.To = filter.ParseList(v)
	}
	if v := getenv("API_ALLOW_ORIGINS"); strings.TrimSpace(v) != "" {
		c.APIAllowOrigins = filter.ParseList(v)
	}
	if v := strings.TrimSpace(getenv("MAX_LOAD_MORE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MAX_LOAD_MORE must be an integer, got %q", ErrInvalidConfig, v)
		}
		c.Scrape.MaxLoadMore = n
	}
	if v := strings.TrimSpace(getenv("STRICT_DATE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: STRICT_DATE must be a boolean, got %q", ErrInvalidConfig, v)
		}
		c.Scrape.StrictDate = b
	}
	return nil
}

// StoreSettings converts the store section for store.Open.
func (c *Config) StoreSettings() store.Config {
	return store.Config{
		Backend:       c.Store.Backend,
		SupabaseURL:   c.Store.SupabaseURL,
		SupabaseKey:   c.Store.SupabaseKey,
		DatabaseURL:   c.Store.DatabaseURL,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
	}
}

// Location resolves the campus timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := event.LoadLocation(c.CampusTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: CAMPUS_TIMEZONE: %v", ErrInvalidConfig, err)
	}
	return loc, nil
}

// ValidateStore checks the settings needed to open the store.
func (c *Config) ValidateStore() error {
	return check(c.Store)
}

// ValidateForScrape checks the settings the scrape command needs.
func (c *Config) ValidateForScrape() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if err := check(c.Scrape); err != nil {
		return err
	}
	_, err := c.Location()
	return err
}

// ValidateForDigest checks the settings the digest command needs. A dry run
// does not need the provider API key.
func (c *Config) ValidateForDigest(dryRun bool) error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if err := check(c.Mail); err != nil {
		return err
	}
	if !dryRun && c.Mail.APIKey == "" {
		return missing("RESEND_API_KEY")
	}
	if c.SubscribersFile == "" && len(c.Mail.To) == 0 {
		return missing("MAIL_TO")
	}
	_, err := c.Location()
	return err
}

func missing(name string) error {
	return fmt.Errorf("%w: %s is required", ErrMissingConfig, name)
}

// check runs the validator and reports the first failing field by its
// environment variable name.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required", "required_if":
		return missing(fe.Field())
	default:
		return fmt.Errorf("%w: %s has invalid value %v (%s)", ErrInvalidConfig, fe.Field(), fe.Value(), fe.Tag())
	}
}
