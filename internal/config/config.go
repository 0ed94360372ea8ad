// Package config loads service settings from an optional YAML file with
// environment overrides on top.
package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "TONECLOSET_CONFIG"
	portEnv        = "PORT"
	dbTypeEnv      = "DB_TYPE"
	dbPathEnv      = "DB_PATH"
	dbHostEnv      = "DB_HOST"
	dbPortEnv      = "DB_PORT"
	dbUserEnv      = "DB_USER"
	dbPasswordEnv  = "DB_PASSWORD"
	dbNameEnv      = "DB_NAME"
	aiServerEnv    = "AI_SERVER_URL"
	listingURLEnv  = "LISTING_URL"
	siteBaseEnv    = "SITE_BASE_URL"
	matchPolicyEnv = "MATCH_POLICY"
	logLevelEnv    = "LOG_LEVEL"
	logFormatEnv   = "LOG_FORMAT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Recommend RecommendConfig `yaml:"recommend"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlitePath"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
}

type AIConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type CatalogConfig struct {
	ListingURL string `yaml:"listingUrl"`
	SiteBase   string `yaml:"siteBase"`
	Limit      int    `yaml:"limit"`
}

type RecommendConfig struct {
	Policy           string `yaml:"policy"`
	PacingMillis     int    `yaml:"pacingMillis"`
	CacheMinutes     int    `yaml:"cacheMinutes"`
	CacheMaxPerShard int    `yaml:"cacheMaxPerShard"`
	CollectUnknown   bool   `yaml:"collectUnknown"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv(dbTypeEnv); v != "" {
		c.Database.Type = v
	}
	if v := os.Getenv(dbPathEnv); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv(dbHostEnv); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv(dbPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv(dbUserEnv); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv(dbPasswordEnv); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(dbNameEnv); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv(aiServerEnv); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv(listingURLEnv); v != "" {
		c.Catalog.ListingURL = v
	}
	if v := os.Getenv(siteBaseEnv); v != "" {
		c.Catalog.SiteBase = v
	}
	if v := os.Getenv(matchPolicyEnv); v != "" {
		c.Recommend.Policy = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Type:       "sqlite",
			SQLitePath: "./tonecloset.db",
			Host:       "localhost",
			Port:       5432,
			User:       "tonecloset",
			Password:   "tonecloset_dev",
			Name:       "tonecloset",
		},
		AI: AIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Catalog: CatalogConfig{
			ListingURL: "https://www.kolonmall.com/Category/List/133010071000?sort=newProduct-desc",
			SiteBase:   "https://www.kolonmall.com",
			Limit:      6,
		},
		Recommend: RecommendConfig{
			Policy:       "season-tone-tiered",
			PacingMillis: 500,
			CacheMinutes: 10,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}
