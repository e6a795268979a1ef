package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/openkeyhub/governance/internal/database/types"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// CurrentVersion is the current version of the config file.
const CurrentVersion = 1

// FileName is the name of the config file looked up in every search path.
const FileName = "governance.toml"

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version    int                    `koanf:"version"`
	Debug      Debug                  `koanf:"debug"`
	PostgreSQL PostgreSQL             `koanf:"postgresql"`
	Redis      Redis                  `koanf:"redis"`
	API        API                    `koanf:"api"`
	Governance types.GovernanceConfig `koanf:"governance"`
	Sweep      Sweep                  `koanf:"sweep"`
	Telemetry  Telemetry              `koanf:"telemetry"`
	Export     Export                 `koanf:"export"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Directory holding one sub-directory of logs per session.
	LogDir string `koanf:"log_dir"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Disable TLS for the connection.
	Insecure bool `koanf:"insecure"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
	// Queries slower than this many milliseconds are logged as warnings. Zero disables the log.
	SlowQueryMS int `koanf:"slow_query_ms"`
}

// Address returns the host:port pair of the server.
func (p PostgreSQL) Address() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Disables client side caching, required for servers without RESP3 tracking.
	DisableCache bool `koanf:"disable_cache"`
}

// Address returns the host:port pair of the server.
func (r Redis) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// API contains HTTP server configuration.
type API struct {
	// Address to listen on.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
	// HMAC secret used to verify bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`
	// Expected issuer of bearer tokens. Empty accepts any issuer.
	JWTIssuer string `koanf:"jwt_issuer"`
	// Sustained requests per second allowed for each principal.
	RateLimit float64 `koanf:"rate_limit"`
	// Burst size of the per-principal limiter.
	RateBurst int `koanf:"rate_burst"`
	// Rejections in a row before a client is blocked.
	StrikeLimit int `koanf:"strike_limit"`
	// How long a client stays blocked after reaching the strike limit.
	BlockDuration time.Duration `koanf:"block_duration"`
	// Maximum time to handle a request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// Maximum size of a request body in bytes.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	// How long voting stats are cached.
	StatsCacheTTL time.Duration `koanf:"stats_cache_ttl"`
}

// Address returns the host:port pair to listen on.
func (a API) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Sweep contains background sweeper configuration.
type Sweep struct {
	// Run the sweeper alongside the API server.
	Enabled bool `koanf:"enabled"`
	// Time between sweeps.
	Interval time.Duration `koanf:"interval"`
	// Maximum concurrent jobs in one sweep.
	Concurrency int `koanf:"concurrency"`
	// Lifetime of the distributed sweep lock.
	LockTTL time.Duration `koanf:"lock_ttl"`
}

// Telemetry contains tracing configuration.
type Telemetry struct {
	// Uptrace DSN. Empty disables exporting.
	UptraceDSN string `koanf:"uptrace_dsn"`
	// Service name reported with traces.
	ServiceName string `koanf:"service_name"`
	// Deployment environment reported with traces.
	Environment string `koanf:"environment"`
}

// Export contains vote export configuration.
type Export struct {
	// Salt mixed into hashed voter identifiers.
	Salt string `koanf:"salt"`
	// Hash algorithm for voter identifiers (argon2id or sha256).
	HashType string `koanf:"hash_type"`
	// Hash iterations.
	Iterations uint32 `koanf:"iterations"`
	// Argon2id memory in MiB.
	Memory uint32 `koanf:"memory"`
	// Maximum concurrent hashing workers.
	Concurrency int `koanf:"concurrency"`
}

// Default returns the configuration used for keys missing from the config file.
func Default() Config {
	return Config{
		Debug: Debug{
			LogLevel:      "info",
			LogDir:        "logs",
			MaxLogsToKeep: 10,
			MaxLogLines:   100000,
		},
		PostgreSQL: PostgreSQL{
			Host:         "localhost",
			Port:         5432,
			User:         "postgres",
			DBName:       "governance",
			Insecure:     true,
			MaxOpenConns: 20,
			MaxIdleConns: 10,
			MaxLifetime:  30,
			MaxIdleTime:  5,
			SlowQueryMS:  500,
		},
		Redis: Redis{
			Host: "localhost",
			Port: 6379,
		},
		API: API{
			Host:           "0.0.0.0",
			Port:           8080,
			JWTIssuer:      "governance",
			RateLimit:      5,
			RateBurst:      20,
			StrikeLimit:    10,
			BlockDuration:  time.Minute,
			RequestTimeout: 15 * time.Second,
			MaxBodyBytes:   1 << 20,
			StatsCacheTTL:  30 * time.Second,
		},
		Governance: types.DefaultGovernanceConfig(),
		Sweep: Sweep{
			Enabled:     true,
			Interval:    time.Minute,
			Concurrency: 4,
			LockTTL:     5 * time.Minute,
		},
		Telemetry: Telemetry{
			ServiceName: "governance",
			Environment: "development",
		},
		Export: Export{
			HashType:    "argon2id",
			Iterations:  3,
			Memory:      64,
			Concurrency: 4,
		},
	}
}

// SearchPaths returns the directories searched for the config file, in order.
func SearchPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".governance",
		homeDir + "/.governance/config",
		"/etc/governance/config",
		"/app/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the first search path holding a config file.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	paths, err := SearchPaths()
	if err != nil {
		return nil, "", err
	}
	return Load(paths...)
}

// Load loads the configuration from the first of the given directories holding a config file.
func Load(paths ...string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string
	for _, path := range paths {
		configPath := fmt.Sprintf("%s/%s", path, FileName)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, FileName)
	}

	// Keys missing from the file keep their default values
	config := Default()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, "", err
	}

	if err := config.Governance.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid [governance] section: %w", err)
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s", ErrConfigVersionMissing, FileName)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/openkeyhub/governance/tree/%s/config/%s",
			ErrConfigVersionMismatch,
			FileName,
			current,
			expected,
			RepositoryVersion,
			FileName,
		)
	}

	return nil
}
