package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	// HTTP server
	ListenAddr  string        // e.g. ":8080"
	HTTPTimeout time.Duration // per remote call (Shopify API, CDN fetch)

	// Shopify Admin API
	ShopifyStore      string // e.g. "my-store.myshopify.com"
	ShopifyToken      string // Admin API access token
	ShopifyAPIVersion string // e.g. "2025-01"

	// Operator credentials for the uploader
	UploaderUser string
	UploaderPass string

	// Sessions
	SessionTTL time.Duration

	// Logging
	LogLevel string

	// Postgres session store; empty PGHost selects the in-memory store
	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string
}

// AdminURL is the Shopify Admin GraphQL endpoint for the configured store.
func (c Config) AdminURL() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.ShopifyStore, c.ShopifyAPIVersion)
}

// BuildDSN composes a keyword/value DSN compatible with pgxpool.
func (c Config) BuildDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PGHost, c.PGPort, c.PGUser, c.PGPassword, c.PGDatabase, c.PGSSLMode,
	)
}

func FromEnv() Config {
	c := Config{}

	c.ListenAddr = getenv("HTTP_LISTEN_ADDR", ":8080")
	c.HTTPTimeout = getenvd("HTTP_TIMEOUT", 30*time.Second)

	c.ShopifyStore = getenv("SHOPIFY_STORE", "")
	c.ShopifyToken = getenv("SHOPIFY_TOKEN", "")
	c.ShopifyAPIVersion = getenv("SHOPIFY_API_VERSION", "2025-01")

	c.UploaderUser = getenv("UPLOADER_USER", "")
	c.UploaderPass = getenv("UPLOADER_PASS", "")

	c.SessionTTL = getenvd("SESSION_TTL", 12*time.Hour)
	c.LogLevel = getenv("LOG_LEVEL", "info")

	// Postgres pieces (optional)
	c.PGHost = getenv("PG_HOST", "")
	c.PGPort = getenvi("PG_PORT", 5432)
	c.PGUser = getenv("PG_USER", "app")
	c.PGPassword = getenv("PG_PASSWORD", "app")
	c.PGDatabase = getenv("PG_DATABASE", "uploader")
	c.PGSSLMode = getenv("PG_SSLMODE", "disable")

	return c
}

// Validate reports the settings the service cannot run without.
func (c Config) Validate() error {
	if c.ShopifyStore == "" {
		return fmt.Errorf("SHOPIFY_STORE is required")
	}
	if c.ShopifyToken == "" {
		return fmt.Errorf("SHOPIFY_TOKEN is required")
	}
	if c.UploaderUser == "" || c.UploaderPass == "" {
		return fmt.Errorf("UPLOADER_USER and UPLOADER_PASS are required")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var iv int
		_, err := fmt.Sscanf(v, "%d", &iv)
		if err == nil {
			return iv
		}
	}
	return def
}

func getenvd(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
