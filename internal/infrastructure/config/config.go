// Package config loads portal settings from config.toml and DATADIK_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Cookie       CookieConfig       `mapstructure:"cookie"`
	Log          LogConfig          `mapstructure:"log"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Site         SiteConfig         `mapstructure:"site"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Verification VerificationConfig `mapstructure:"verification"`
	Toast        ToastConfig        `mapstructure:"toast"`
	Swagger      SwaggerConfig      `mapstructure:"swagger"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN returns the postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	Issuer                 string        `mapstructure:"issuer"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
}

// CookieConfig describes the session cookie. An empty Domain scopes it to
// the current host.
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"` // strict, lax, none
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	// Stricter per-IP limit for the login endpoint
	AuthRateLimitEnabled  bool          `mapstructure:"auth_rate_limit_enabled"`
	AuthRateLimitRequests int           `mapstructure:"auth_rate_limit_requests"`
	AuthRateLimitWindow   time.Duration `mapstructure:"auth_rate_limit_window"`
	CORSAllowOrigins      []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods      []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders      []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies        []string      `mapstructure:"trusted_proxies"`
}

// StorageConfig selects where submitted files go. With Enabled false they
// are written under LocalDir.
type StorageConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size"`
	LocalDir        string        `mapstructure:"local_dir"`
}

type SiteConfig struct {
	PrimaryHost string   `mapstructure:"primary_host"`
	RootHosts   []string `mapstructure:"root_hosts"`
}

type SyncConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	ListingURLs      []string      `mapstructure:"listing_urls"`
	DetailURL        string        `mapstructure:"detail_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	Fetcher          string        `mapstructure:"fetcher"` // http, browser
	ListingTimeout   time.Duration `mapstructure:"listing_timeout"`
	DetailTimeout    time.Duration `mapstructure:"detail_timeout"`
	MaxRedirects     int           `mapstructure:"max_redirects"`
	DetailRatePerSec float64       `mapstructure:"detail_rate_per_second"`
	// ScheduleInterval of 0 disables scheduled runs
	ScheduleInterval   time.Duration `mapstructure:"schedule_interval"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
	BrowserExecPath    string        `mapstructure:"browser_exec_path"`
	BrowserWaitVisible string        `mapstructure:"browser_wait_visible"`
	// RetryAttempts re-runs a failed scheduled sync, backing off from
	// RetryDelay up to RetryMaxDelay
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RetryMaxDelay time.Duration `mapstructure:"retry_max_delay"`
}

type VerificationConfig struct {
	ReapInterval time.Duration `mapstructure:"reap_interval"`
	ReapAfter    time.Duration `mapstructure:"reap_after"`
}

type ToastConfig struct {
	TTL               time.Duration `mapstructure:"ttl"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	BufferSize        int           `mapstructure:"buffer_size"`
	RedisChannel      string        `mapstructure:"redis_channel"`
}

type SwaggerConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	RequireAuth bool     `mapstructure:"require_auth"`
	AllowedIPs  []string `mapstructure:"allowed_ips"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
	ProfilingEnabled  bool          `mapstructure:"profiling_enabled"`
	PyroscopeURL      string        `mapstructure:"pyroscope_url"`
	SpanProfiles      bool          `mapstructure:"span_profiles"`
}

// Registry endpoints for Kecamatan Cilebar
var (
	DefaultListingURLs = []string{
		"https://referensi.data.kemendikdasmen.go.id/pendidikan/dikdas/022132/3/jf/5/s1",
		"https://referensi.data.kemendikdasmen.go.id/pendidikan/dikdas/022132/3/jf/6/s1",
	}
	DefaultDetailURL = "https://referensi.data.kemendikdasmen.go.id/tabs.php?npsn="
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// defaults lists every key viper should know about. Keys without a default
// are listed with their zero value so DATADIK_* variables reach them.
var defaults = map[string]any{
	"app.name": "datadik-portal",
	"app.env":  "development",
	"app.port": "8080",

	"database.enabled":            true,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "datadik",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                   "",
	"jwt.refresh_secret":           "",
	"jwt.issuer":                   "datadik-portal",
	"jwt.access_token_expiration":  time.Hour,
	"jwt.refresh_token_expiration": 7 * 24 * time.Hour,

	"cookie.name":      "datadik_session",
	"cookie.domain":    "",
	"cookie.path":      "/",
	"cookie.secure":    false,
	"cookie.same_site": "lax",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout": 15 * time.Second,
	// the sync endpoint holds the connection for the whole run
	"http.write_timeout":            15 * time.Minute,
	"http.idle_timeout":             time.Minute,
	"http.max_header_bytes":         1 << 20,
	"http.max_body_size":            25 << 20,
	"http.rate_limit_enabled":       false,
	"http.rate_limit_requests":      100,
	"http.rate_limit_window":        time.Minute,
	"http.auth_rate_limit_enabled":  false,
	"http.auth_rate_limit_requests": 10,
	"http.auth_rate_limit_window":   time.Minute,
	"http.cors_allow_origins":       []string{},
	"http.cors_allow_methods":       []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":       []string{"Content-Type", "Authorization", "X-Request-ID", "Last-Event-ID"},
	"http.trusted_proxies":          []string{},

	"storage.enabled":           false,
	"storage.endpoint":          "",
	"storage.region":            "auto",
	"storage.bucket":            "submissions",
	"storage.access_key_id":     "",
	"storage.secret_access_key": "",
	"storage.use_path_style":    false,
	"storage.presign_expiry":    15 * time.Minute,
	"storage.max_upload_size":   20 << 20,
	"storage.local_dir":         "./uploads",

	"site.primary_host": "datadikcilebar.my.id",
	"site.root_hosts":   []string{},

	"sync.api_key":                "",
	"sync.listing_urls":           DefaultListingURLs,
	"sync.detail_url":             DefaultDetailURL,
	"sync.user_agent":             DefaultUserAgent,
	"sync.fetcher":                "http",
	"sync.listing_timeout":        30 * time.Second,
	"sync.detail_timeout":         15 * time.Second,
	"sync.max_redirects":          5,
	"sync.detail_rate_per_second": 2.0,
	"sync.schedule_interval":      time.Duration(0),
	"sync.lock_ttl":               30 * time.Minute,
	"sync.browser_exec_path":      "",
	"sync.browser_wait_visible":   "body",
	"sync.retry_attempts":         2,
	"sync.retry_delay":            time.Minute,
	"sync.retry_max_delay":        15 * time.Minute,

	"verification.reap_interval": time.Hour,
	"verification.reap_after":    24 * time.Hour,

	"toast.ttl":                5 * time.Second,
	"toast.heartbeat_interval": 30 * time.Second,
	"toast.buffer_size":        16,
	"toast.redis_channel":      "datadik:notifications",

	"swagger.enabled":      false,
	"swagger.require_auth": false,
	"swagger.allowed_ips":  []string{},

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.pyroscope_url":           "http://localhost:4040",
	"telemetry.span_profiles":           false,
}

// Load reads configuration. Later sources win:
//  1. built-in defaults
//  2. config.toml in . or /app, or the file named by DATADIK_CONFIG
//  3. DATADIK_* environment variables, e.g. DATADIK_DATABASE_PASSWORD
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv("DATADIK_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/app")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("DATADIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToList(),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringToList splits environment values such as
// "https://a.example/list https://b.example/list" on commas or whitespace
func stringToList() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
			return data, nil
		}
		return strings.FieldsFunc(data.(string), func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		}), nil
	}
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return errors.New("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Sync.Fetcher != "http" && c.Sync.Fetcher != "browser" {
		return fmt.Errorf("sync.fetcher must be 'http' or 'browser', got %q", c.Sync.Fetcher)
	}
	if c.Sync.RetryAttempts < 0 {
		return errors.New("sync.retry_attempts cannot be negative")
	}
	if c.Sync.DetailRatePerSec < 0 {
		return errors.New("sync.detail_rate_per_second cannot be negative")
	}
	for _, raw := range append(append([]string(nil), c.Sync.ListingURLs...), c.Sync.DetailURL) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid sync url %q", raw)
		}
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.App.IsProduction() {
		return c.validateProduction()
	}
	return nil
}

// validateProduction rejects settings that are only safe on a laptop
func (c *Config) validateProduction() error {
	switch {
	case len(c.JWT.Secret) < 32:
		return errors.New("jwt.secret must be at least 32 characters in production")
	case c.Database.Enabled && c.Database.Password == "":
		return errors.New("database.password is required in production")
	case !c.Cookie.Secure:
		return errors.New("cookie.secure must be true in production")
	case c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0:
		return errors.New("swagger endpoint must be disabled, require authentication, or have IP restriction in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("cors_allow_origins cannot be '*' in production")
		}
	}
	return nil
}
