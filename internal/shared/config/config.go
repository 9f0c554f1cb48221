package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	KurrentDB KurrentDBConfig
	Auth      AuthConfig
	Policy    PolicyConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// KurrentDBConfig holds configuration for the audit event store.
type KurrentDBConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

type AuthConfig struct {
	// JWTSecret signs and verifies tokens on the internal APIs the SAML
	// frontends call.
	JWTSecret string
}

// PolicyConfig holds the policy engine's timing knobs and the locations of
// its collaborators.
type PolicyConfig struct {
	// SessionLength bounds the whole user journey.
	SessionLength time.Duration
	// MatchWaitPeriod bounds one matching-service round trip and must be
	// well below SessionLength.
	MatchWaitPeriod time.Duration
	// AssertionLifetime bounds the validity of assertions embedded in
	// outbound attribute queries.
	AssertionLifetime time.Duration
	// FederationConfigPath points at the YAML document describing the
	// federation's relying parties, providers and matching services.
	FederationConfigPath string
	// SamlSoapProxyURL is the base URL of the service that performs the
	// actual matching-service SOAP exchange.
	SamlSoapProxyURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "hub"),
			Password: getEnv("DB_PASSWORD", "hub"),
			Database: getEnv("DB_NAME", "hub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		KurrentDB: KurrentDBConfig{
			Host:     getEnv("KURRENTDB_HOST", "localhost"),
			Port:     getEnvInt("KURRENTDB_PORT", 2113),
			Insecure: getEnvBool("KURRENTDB_INSECURE", true),
			Username: getEnv("KURRENTDB_USERNAME", ""),
			Password: getEnv("KURRENTDB_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		Policy: PolicyConfig{
			SessionLength:        getEnvDuration("POLICY_SESSION_LENGTH", 90*time.Minute),
			MatchWaitPeriod:      getEnvDuration("POLICY_MATCH_WAIT_PERIOD", 60*time.Second),
			AssertionLifetime:    getEnvDuration("POLICY_ASSERTION_LIFETIME", 60*time.Minute),
			FederationConfigPath: getEnv("POLICY_FEDERATION_CONFIG", "federation.yaml"),
			SamlSoapProxyURL:     getEnv("SAML_SOAP_PROXY_URL", "http://localhost:8081"),
		},
	}
	if cfg.Policy.MatchWaitPeriod >= cfg.Policy.SessionLength {
		return nil, fmt.Errorf("match wait period %s must be shorter than session length %s",
			cfg.Policy.MatchWaitPeriod, cfg.Policy.SessionLength)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
