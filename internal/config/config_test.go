package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKSPOINTER_CATALOG_BASE_URL", "http://localhost:9000")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "https://www.ebanglalibrary.com", cfg.Site.BaseURL)
	require.Equal(t, "/wp-admin/admin-ajax.php", cfg.Site.AjaxPath)
	require.Equal(t, 200, cfg.Source.PageSize)
	require.Equal(t, 100, cfg.Source.MaxPages)
	require.Equal(t, 4, cfg.Crawl.PageConcurrency)
	require.False(t, cfg.Crawl.MultiPage)
	require.Equal(t, 30*time.Second, cfg.FetchTimeout())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("BOOKSPOINTER_CATALOG_BASE_URL", "http://localhost:9000")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9091
crawl:
  multi_page: true
  page_concurrency: 8
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9091, cfg.Server.Port)
	require.True(t, cfg.Crawl.MultiPage)
	require.Equal(t, 8, cfg.Crawl.PageConcurrency)
}

func TestLoad_MissingCatalogURLFails(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "catalog.base_url")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero timeout", func(c *Config) { c.Crawl.TimeoutSeconds = 0 }},
		{"zero concurrency", func(c *Config) { c.Crawl.PageConcurrency = 0 }},
		{"empty skip log", func(c *Config) { c.Crawl.SkipLogPath = "" }},
		{"zero page size", func(c *Config) { c.Source.PageSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func validConfig() Config {
	return Config{
		Server:  ServerConfig{Port: 8080},
		Site:    SiteConfig{BaseURL: "https://site.example"},
		Catalog: CatalogConfig{BaseURL: "http://localhost:9000"},
		Source:  SourceConfig{PageSize: 200, MaxPages: 100},
		Crawl: CrawlConfig{
			TimeoutSeconds:  30,
			PageConcurrency: 4,
			SkipLogPath:     "login_required.txt",
		},
	}
}
