package cli

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jackhunterking/beautycanvas/pkg/enhance"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// Config is the TOML configuration consumed by the serve command.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `toml:"listen"`

	// TemplateDir holds template TOML files. Empty means the built-in
	// templates only.
	TemplateDir string `toml:"template_dir"`

	// TemplateID is the active editing template.
	TemplateID string `toml:"template_id"`

	Queue   QueueConfig   `toml:"queue"`
	Credits CreditsConfig `toml:"credits"`
	Storage StorageConfig `toml:"storage"`
	Redis   RedisConfig   `toml:"redis"`
	Mongo   MongoConfig   `toml:"mongo"`
	Cache   CacheConfig   `toml:"cache"`

	// Features overrides the built-in enhancement catalog when non-empty.
	Features []enhance.Feature `toml:"features"`
}

// QueueConfig points at the remote enhancement queue.
type QueueConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// CreditsConfig tunes the credit ledger.
type CreditsConfig struct {
	MonthlyAllocation int `toml:"monthly_allocation"`
}

// StorageConfig points at the durable object store.
type StorageConfig struct {
	Dir     string `toml:"dir"`
	BaseURL string `toml:"base_url"`
}

// RedisConfig selects redis-backed job and credit stores. An empty address
// means in-process memory stores.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig selects the mongo project repository. An empty URI means an
// in-process memory repository.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// CacheConfig tunes the fetched-image cache.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	TTLHours int    `toml:"ttl_hours"`
}

// Defaults used when the config file leaves fields unset.
const (
	defaultListen          = ":8080"
	defaultTemplateID      = "before-after"
	defaultAllocation      = 30
	defaultMongoDatabase   = "beautycanvas"
	defaultMongoCollection = "projects"
	defaultCacheTTLHours   = 24
)

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, err, "load config %s", path)
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateAndSetDefaults validates the config and fills in defaults.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.TemplateID == "" {
		c.TemplateID = defaultTemplateID
	}
	if c.Queue.BaseURL == "" {
		return errors.New(errors.ErrCodeValidation, "queue.base_url is required")
	}
	if c.Credits.MonthlyAllocation <= 0 {
		c.Credits.MonthlyAllocation = defaultAllocation
	}
	if c.Storage.Dir == "" {
		return errors.New(errors.ErrCodeValidation, "storage.dir is required")
	}
	if c.Storage.BaseURL == "" {
		return errors.New(errors.ErrCodeValidation, "storage.base_url is required")
	}
	if c.Mongo.URI != "" {
		if c.Mongo.Database == "" {
			c.Mongo.Database = defaultMongoDatabase
		}
		if c.Mongo.Collection == "" {
			c.Mongo.Collection = defaultMongoCollection
		}
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
	for _, f := range c.Features {
		if f.Key == "" || f.ModelID == "" {
			return errors.New(errors.ErrCodeValidation, "feature entries need key and model_id")
		}
		if f.Cost <= 0 {
			return errors.New(errors.ErrCodeValidation, "feature %q needs a positive cost", f.Key)
		}
	}
	return nil
}

// Catalog returns the configured feature catalog, or the built-in one when no
// features are configured.
func (c *Config) Catalog() enhance.Catalog {
	if len(c.Features) == 0 {
		return enhance.DefaultCatalog()
	}
	catalog := make(enhance.Catalog, len(c.Features))
	for _, f := range c.Features {
		catalog[f.Key] = f
	}
	return catalog
}

// CacheTTL returns the image cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}
