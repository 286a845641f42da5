package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort     string
	JWTSecret   string
	ClientURL   string
	TimeZone    string
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string
	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectBase  string
	// HTTP hardening
	RateLimitEnabled      bool
	RateLimitPerMinute    int
	AllowedOrigins        []string
	AccessTokenTTLMinutes int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for caching, token blacklist and the repair queue
	RedisDisabled bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Completion repair worker; 0 disables it
	RepairIntervalSec int
	// Stats cache TTL
	StatsCacheTTLSec int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("ignoring config/config.json: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Location resolves TimeZone, falling back to UTC for empty or unknown names.
func (c AppConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("unknown TIMEZONE %q, using UTC", c.TimeZone)
		return time.UTC
	}
	return loc
}

// AccessTokenTTL is the lifetime of issued JWTs.
func (c AppConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}
	applyJSON(raw, out)
	return nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]any, key string) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case json.Number:
			i, _ := t.Int64()
			return int(i)
		}
	}
	return 0
}

func getBool(m map[string]any, key string) (bool, bool) {
	if v, ok := m[key]; ok {
		b, ok := v.(bool)
		return b, ok
	}
	return false, false
}

func getStringSlice(m map[string]any, key string) []string {
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			res := make([]string, 0, len(arr))
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res = append(res, s)
				}
			}
			return res
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" && *dst == "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 && *dst == 0 {
		*dst = v
	}
}

func setBool(dst *bool, m map[string]any, key string) {
	if b, ok := getBool(m, key); ok {
		*dst = b
	}
}

// applyJSON supports grouped sections ({"app": {...}, "database": {...}}) and flat keys.
// Grouped values win over flat ones.
func applyJSON(raw map[string]any, out *AppConfig) {
	if app, ok := raw["app"].(map[string]any); ok {
		setString(&out.AppPort, getString(app, "AppPort"))
		setString(&out.JWTSecret, getString(app, "JWTSecret"))
		setString(&out.ClientURL, getString(app, "ClientURL"))
		setString(&out.TimeZone, getString(app, "TimeZone"))
		setString(&out.OAuthRedirectBase, getString(app, "OAuthRedirectBase"))
		setInt(&out.RateLimitPerMinute, getInt(app, "RateLimitPerMinute"))
		setBool(&out.RateLimitEnabled, app, "RateLimitEnabled")
		setInt(&out.AccessTokenTTLMinutes, getInt(app, "AccessTokenTTLMinutes"))
		setInt(&out.RepairIntervalSec, getInt(app, "RepairIntervalSec"))
		setInt(&out.StatsCacheTTLSec, getInt(app, "StatsCacheTTLSec"))
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		setString(&out.GinMode, getString(g, "Mode"))
		setString(&out.GinPath, getString(g, "LogPath"))
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		setString(&out.DBDriver, getString(dbs, "Driver"))
		setString(&out.DatabaseURI, getString(dbs, "DatabaseURI"))
		setString(&out.DBHost, getString(dbs, "DBHost"))
		setString(&out.DBPort, getString(dbs, "DBPort"))
		setString(&out.DBUser, getString(dbs, "DBUser"))
		setString(&out.DBPassword, getString(dbs, "DBPassword"))
		setString(&out.DBName, getString(dbs, "DBName"))
		setString(&out.SQLitePath, getString(dbs, "SQLitePath"))
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		setBool(&out.RedisDisabled, rds, "Disabled")
		setString(&out.RedisHost, getString(rds, "RedisHost"))
		setInt(&out.RedisPort, getInt(rds, "RedisPort"))
		setInt(&out.RedisDB, getInt(rds, "RedisDB"))
		setString(&out.RedisPassword, getString(rds, "RedisPassword"))
	}

	if oa, ok := raw["oauth"].(map[string]any); ok {
		setString(&out.GoogleClientID, getString(oa, "GoogleClientID"))
		setString(&out.GoogleClientSecret, getString(oa, "GoogleClientSecret"))
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		setString(&out.LogLevel, getString(lg, "Level"))
		setString(&out.LogPath, getString(lg, "Path"))
		setString(&out.GinMode, getString(lg, "GinMode"))
		setString(&out.GinPath, getString(lg, "GinPath"))
		setInt(&out.LogMaxSizeMB, getInt(lg, "MaxSizeMB"))
		setInt(&out.LogMaxBackups, getInt(lg, "MaxBackups"))
		setInt(&out.LogMaxAgeDays, getInt(lg, "MaxAgeDays"))
		setBool(&out.LogCompress, lg, "Compress")
	}

	// flat keys
	setString(&out.AppPort, getString(raw, "AppPort"))
	setString(&out.JWTSecret, getString(raw, "JWTSecret"))
	setString(&out.ClientURL, getString(raw, "ClientURL"))
	setString(&out.TimeZone, getString(raw, "TimeZone"))
	setString(&out.GinMode, getString(raw, "GinMode"))
	setString(&out.GinPath, getString(raw, "GinPath"))
	setString(&out.OAuthRedirectBase, getString(raw, "OAuthRedirectBase"))
	setInt(&out.RateLimitPerMinute, getInt(raw, "RateLimitPerMinute"))
	setInt(&out.AccessTokenTTLMinutes, getInt(raw, "AccessTokenTTLMinutes"))
	setInt(&out.RepairIntervalSec, getInt(raw, "RepairIntervalSec"))
	if len(out.AllowedOrigins) == 0 {
		out.AllowedOrigins = getStringSlice(raw, "AllowedOrigins")
	}
	setString(&out.DBDriver, getString(raw, "DBDriver"))
	setString(&out.DatabaseURI, getString(raw, "DatabaseURI"))
	setString(&out.DBHost, getString(raw, "DBHost"))
	setString(&out.DBPort, getString(raw, "DBPort"))
	setString(&out.DBUser, getString(raw, "DBUser"))
	setString(&out.DBPassword, getString(raw, "DBPassword"))
	setString(&out.DBName, getString(raw, "DBName"))
	setString(&out.SQLitePath, getString(raw, "SQLitePath"))
	setString(&out.RedisHost, getString(raw, "RedisHost"))
	setInt(&out.RedisPort, getInt(raw, "RedisPort"))
	setInt(&out.RedisDB, getInt(raw, "RedisDB"))
	setString(&out.RedisPassword, getString(raw, "RedisPassword"))
	setString(&out.GoogleClientID, getString(raw, "GoogleClientID"))
	setString(&out.GoogleClientSecret, getString(raw, "GoogleClientSecret"))
	setString(&out.LogLevel, getString(raw, "LogLevel"))
	setString(&out.LogPath, getString(raw, "LogPath"))
	setInt(&out.LogMaxSizeMB, getInt(raw, "LogMaxSizeMB"))
	setInt(&out.LogMaxBackups, getInt(raw, "LogMaxBackups"))
	setInt(&out.LogMaxAgeDays, getInt(raw, "LogMaxAgeDays"))
	setBool(&out.LogCompress, raw, "LogCompress")
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.ClientURL == "" {
		c.ClientURL = "http://localhost:5173"
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.AccessTokenTTLMinutes == 0 {
		c.AccessTokenTTLMinutes = 24 * 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.OAuthRedirectBase == "" {
		c.OAuthRedirectBase = "http://localhost:8080"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "habitrack"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/habitrack.db"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.RepairIntervalSec == 0 {
		c.RepairIntervalSec = 300
	}
	if c.StatsCacheTTLSec == 0 {
		c.StatsCacheTTLSec = 60
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("CLIENT_URL", ""); v != "" {
		c.ClientURL = v
	}
	if v := getEnv("TIMEZONE", ""); v != "" {
		c.TimeZone = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = strings.ToLower(v)
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("SQLITE_PATH", ""); v != "" {
		c.SQLitePath = v
	}
	if v := getEnv("GOOGLE_CLIENT_ID", ""); v != "" {
		c.GoogleClientID = v
	}
	if v := getEnv("GOOGLE_CLIENT_SECRET", ""); v != "" {
		c.GoogleClientSecret = v
	}
	if v := getEnv("OAUTH_REDIRECT_BASE_URL", ""); v != "" {
		c.OAuthRedirectBase = v
	}
	if v := getEnv("RATE_LIMIT_ENABLED", ""); v != "" {
		c.RateLimitEnabled = v == "true"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("ACCESS_TOKEN_TTL_MINUTES", ""); v != "" {
		c.AccessTokenTTLMinutes = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("REDIS_DISABLED", ""); v != "" {
		c.RedisDisabled = v == "true"
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("REPAIR_INTERVAL_SEC", ""); v != "" {
		c.RepairIntervalSec = mustParseInt(v)
	}
	if v := getEnv("STATS_CACHE_TTL_SEC", ""); v != "" {
		c.StatsCacheTTLSec = mustParseInt(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
