package main

import (
	"os"
	"strconv"
	"time"
)

// AppConfig is populated from the environment, every value has a
// development default so the server runs with no setup at all.
type AppConfig struct {
	Addr        string
	Auth        AuthConfig
	Persistence PersistenceConfig
	RedisURL    string
}

type AuthConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	Issuer          string
	Audience        []string
	AuthScheme      string
	APIPrefix       string
}

func (c AuthConfig) GetSigningKey() string    { return c.SigningKey }
func (c AuthConfig) GetSigningMethod() string { return c.SigningMethod }
func (c AuthConfig) GetContextKey() string    { return c.ContextKey }
func (c AuthConfig) GetTokenExpiration() int  { return c.TokenExpiration }
func (c AuthConfig) GetIssuer() string        { return c.Issuer }
func (c AuthConfig) GetAudience() []string    { return c.Audience }
func (c AuthConfig) GetAuthScheme() string    { return c.AuthScheme }
func (c AuthConfig) GetAPIPrefix() string     { return c.APIPrefix }

type PersistenceConfig struct {
	DSN         string
	PingTimeout time.Duration
}

func (p PersistenceConfig) GetDSN() string                { return p.DSN }
func (p PersistenceConfig) GetPingTimeout() time.Duration { return p.PingTimeout }

func LoadConfig() *AppConfig {
	return &AppConfig{
		Addr: envString("ACCOUNTS_ADDR", ":8572"),
		Auth: AuthConfig{
			SigningKey:      envString("ACCOUNTS_SIGNING_KEY", "insecure-dev-signing-key"),
			SigningMethod:   envString("ACCOUNTS_SIGNING_METHOD", "HS256"),
			ContextKey:      envString("ACCOUNTS_CONTEXT_KEY", "user"),
			TokenExpiration: envInt("ACCOUNTS_TOKEN_EXPIRATION", 60),
			Issuer:          envString("ACCOUNTS_ISSUER", "accounts"),
			Audience:        []string{envString("ACCOUNTS_AUDIENCE", "accounts")},
			AuthScheme:      envString("ACCOUNTS_AUTH_SCHEME", "Bearer"),
			APIPrefix:       envString("ACCOUNTS_API_PREFIX", "/api/v1"),
		},
		Persistence: PersistenceConfig{
			DSN:         envString("ACCOUNTS_DSN", "file::memory:?cache=shared"),
			PingTimeout: envDuration("ACCOUNTS_PING_TIMEOUT", 5*time.Second),
		},
		RedisURL: envString("ACCOUNTS_REDIS_URL", ""),
	}
}

func envString(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}
