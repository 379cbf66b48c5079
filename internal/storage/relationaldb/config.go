package relationaldb

import (
	"fmt"
	"net/url"
	"time"
)

// Supported drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains trade database configuration settings
type Config struct {
	// Database connection settings
	Driver           string `json:"driver" mapstructure:"driver"`
	ConnectionString string `json:"connection_string" mapstructure:"dsn"`
	Host             string `json:"host" mapstructure:"host"`
	Port             int    `json:"port" mapstructure:"port"`
	Database         string `json:"database" mapstructure:"database"`
	Username         string `json:"username" mapstructure:"username"`
	Password         string `json:"password" mapstructure:"password"`
	SSLMode          string `json:"ssl_mode" mapstructure:"ssl_mode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// DefaultTimeout bounds every statement
	DefaultTimeout time.Duration `json:"default_timeout" mapstructure:"default_timeout"`
}

// NewConfig creates a new Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Driver:          DriverNone,
		Host:            "localhost",
		Port:            5432,
		Database:        "dexd",
		Username:        "dexd",
		SSLMode:         "prefer",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  time.Second * 30,
	}
}

// PostgresConfig creates a PostgreSQL-specific configuration
func PostgresConfig() *Config {
	config := NewConfig()
	config.Driver = DriverPostgres
	return config
}

// SQLiteConfig creates a SQLite-specific configuration. ":memory:" opens a
// private in-memory database.
func SQLiteConfig(dbPath string) *Config {
	config := NewConfig()
	config.Driver = DriverSQLite
	config.Database = dbPath
	config.MaxOpenConns = 1 // SQLite limitation
	config.MaxIdleConns = 1
	return config
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	switch c.Driver {
	case "", DriverNone:
		c.Driver = DriverNone
		return nil
	case DriverPostgres, "postgresql":
		c.Driver = DriverPostgres
	case DriverSQLite, "sqlite3":
		c.Driver = DriverSQLite
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}

	if c.Driver == DriverPostgres && c.ConnectionString == "" {
		if c.Host == "" {
			return ErrMissingHost
		}
		if c.Port <= 0 || c.Port > 65535 {
			return ErrInvalidPort
		}
		if c.Database == "" {
			return ErrMissingDatabase
		}
		if c.Username == "" {
			return ErrMissingUsername
		}
		switch c.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	}
	if c.Driver == DriverSQLite && c.ConnectionString == "" && c.Database == "" {
		return ErrMissingDatabase
	}

	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns < 0 {
		return ErrInvalidMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return ErrMaxIdleExceedsMaxOpen
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ConnMaxLifetime < 0 {
		return ErrInvalidConnMaxLifetime
	}
	return nil
}

// BuildConnectionString builds a connection string from the config
func (c *Config) BuildConnectionString() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}

	switch c.Driver {
	case DriverPostgres:
		return c.buildPostgresConnectionString(), nil
	case DriverSQLite:
		return c.buildSQLiteConnectionString(), nil
	default:
		return "", fmt.Errorf("unsupported driver for connection string building: %s", c.Driver)
	}
}

func (c *Config) buildPostgresConnectionString() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	params.Set("connect_timeout", "30")
	params.Set("application_name", "dexd")

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	return u.String()
}

func (c *Config) buildSQLiteConnectionString() string {
	if c.Database == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "busy_timeout(5000)")
	return "file:" + c.Database + "?" + params.Encode()
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config (with password redacted)
func (c *Config) String() string {
	clone := c.Clone()
	if clone.Password != "" {
		clone.Password = "***"
	}
	connStr := clone.ConnectionString
	if connStr == "" {
		connStr, _ = clone.BuildConnectionString()
	}
	return fmt.Sprintf("Config{Driver: %s, Host: %s, Port: %d, Database: %s, Connection: %s}",
		clone.Driver, clone.Host, clone.Port, clone.Database, connStr)
}

// WithConnectionString returns a new config with the specified connection string
func (c *Config) WithConnectionString(connStr string) *Config {
	clone := c.Clone()
	clone.ConnectionString = connStr
	return clone
}
