package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvHost     = "PG_HOST"
	EnvPort     = "PG_PORT"
	EnvDBName   = "PG_DBNAME"
	EnvUser     = "PG_USER"
	EnvPassword = "PG_PASSWORD"
	EnvSSLMode  = "PG_SSLMODE"
)

// Config holds PostgreSQL connection parameters.
type Config struct {
	Host     string
	Port     int
	DBName   string
	User     string
	Password string
	SSLMode  string
}

// LoadConfigFromEnv builds a Config from PG_* environment variables.
// The given dotenv files (".env" when none are given) are loaded first if
// present; variables already set in the environment take precedence.
// PG_HOST, PG_PORT, PG_DBNAME and PG_USER are required.
func LoadConfigFromEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var missing []string
	get := func(key string, required bool) string {
		v, ok := os.LookupEnv(key)
		if required && (!ok || v == "") {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Host:     get(EnvHost, true),
		DBName:   get(EnvDBName, true),
		User:     get(EnvUser, true),
		Password: get(EnvPassword, false),
		SSLMode:  get(EnvSSLMode, false),
	}
	port := get(EnvPort, true)

	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return Config{}, fmt.Errorf("invalid %s %q", EnvPort, port)
	}
	cfg.Port = p

	return cfg, nil
}

// DSN renders the config as a libpq keyword/value connection string.
func (c Config) DSN() string {
	var parts []string
	add := func(key, val string) {
		if val != "" {
			parts = append(parts, key+"="+quoteDSNValue(val))
		}
	}

	add("host", c.Host)
	if c.Port > 0 {
		add("port", strconv.Itoa(c.Port))
	}
	add("dbname", c.DBName)
	add("user", c.User)
	add("password", c.Password)
	add("sslmode", c.SSLMode)
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes values that are empty or contain spaces,
// quotes or backslashes.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
