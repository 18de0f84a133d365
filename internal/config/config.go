// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Site      SiteConfig      `mapstructure:"site"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Source    SourceConfig    `mapstructure:"source"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Sheet     SheetConfig     `mapstructure:"sheet"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SiteConfig points at the content site being scraped.
type SiteConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	AjaxPath   string `mapstructure:"ajax_path"`
	PagerNonce string `mapstructure:"pager_nonce"`
	UserAgent  string `mapstructure:"user_agent"`
	Cookie     string `mapstructure:"cookie"`
}

// CatalogConfig points at the internal book catalog API.
type CatalogConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SourceConfig points at the external author source API.
type SourceConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	UserID   int    `mapstructure:"user_id"`
	Device   int    `mapstructure:"device"`
	PageSize int    `mapstructure:"page_size"`
	MaxPages int    `mapstructure:"max_pages"`
}

// PublisherConfig points at the external publishing platform.
type PublisherConfig struct {
	CreateBookURL string `mapstructure:"create_book_url"`
}

// SheetConfig identifies the spreadsheet ledger.
type SheetConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Worksheet       string `mapstructure:"worksheet"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// CrawlConfig governs crawl pipeline behavior. AuthorURL and AuthorID
// give the serve-mode crawl trigger a default target; the crawl
// command takes them on the command line instead.
type CrawlConfig struct {
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	PageConcurrency int    `mapstructure:"page_concurrency"`
	MultiPage       bool   `mapstructure:"multi_page"`
	SkipLogPath     string `mapstructure:"skip_log_path"`
	PageCacheSize   int    `mapstructure:"page_cache_size"`
	AuthorURL       string `mapstructure:"author_url"`
	AuthorID        int    `mapstructure:"author_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKSPOINTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("site.base_url", "https://www.ebanglalibrary.com")
	v.SetDefault("site.ajax_path", "/wp-admin/admin-ajax.php")
	v.SetDefault("site.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36")
	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("site.pager_nonce", "")
	v.SetDefault("site.cookie", "")
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("sheet.spreadsheet_id", "")
	v.SetDefault("sheet.credentials_file", "")
	v.SetDefault("crawl.author_url", "")
	v.SetDefault("crawl.author_id", 0)
	v.SetDefault("source.base_url", "https://api.bookspointer.com")
	v.SetDefault("source.user_id", 248)
	v.SetDefault("source.device", 1)
	v.SetDefault("source.page_size", 200)
	v.SetDefault("source.max_pages", 100)
	v.SetDefault("publisher.create_book_url", "https://api.bookspointer.com/admin/create-book")
	v.SetDefault("sheet.worksheet", "verified_authors")
	v.SetDefault("crawl.timeout_seconds", 30)
	v.SetDefault("crawl.page_concurrency", 4)
	v.SetDefault("crawl.multi_page", false)
	v.SetDefault("crawl.skip_log_path", "login_required.txt")
	v.SetDefault("crawl.page_cache_size", 128)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url must be set")
	}
	if c.Crawl.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawl.timeout_seconds must be > 0")
	}
	if c.Crawl.PageConcurrency <= 0 {
		return fmt.Errorf("crawl.page_concurrency must be > 0")
	}
	if c.Crawl.SkipLogPath == "" {
		return fmt.Errorf("crawl.skip_log_path must be set")
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("source.page_size must be > 0")
	}
	if c.Source.MaxPages <= 0 {
		return fmt.Errorf("source.max_pages must be > 0")
	}
	return nil
}

// FetchTimeout converts the crawl timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawl.TimeoutSeconds) * time.Second
}
