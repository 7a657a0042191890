package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix は設定を上書きする環境変数の接頭辞です。
// ECAP_DATABASE__PASSWORD は database.password に対応します。
const EnvPrefix = "ECAP_"

const (
	defaultShutdownTimeout    = 10 * time.Second
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	defaultMaxCapacityPercent = 100
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Capacity CapacityConfig `koanf:"capacity"`
	Auth     AuthConfig     `koanf:"auth"`
}

// ServerConfig は gRPC サーバーとメトリクス公開に関する設定です。
type ServerConfig struct {
	ListenAddr         string        `koanf:"listen_addr"`
	MetricsAddr        string        `koanf:"metrics_addr"`
	ShutdownTimeout    time.Duration `koanf:"-"`
	ShutdownTimeoutRaw string        `koanf:"shutdown_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	User               string        `koanf:"user"`
	Password           string        `koanf:"password"`
	Name               string        `koanf:"name"`
	SSLMode            string        `koanf:"ssl_mode"`
	MaxOpenConns       int           `koanf:"max_open_conns"`
	MaxIdleConns       int           `koanf:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `koanf:"-"`
	ConnMaxIdleTime    time.Duration `koanf:"-"`
	ConnMaxLifetimeRaw string        `koanf:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `koanf:"conn_max_idle_time"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CapacityConfig は稼働率計算に関する既定値です。
type CapacityConfig struct {
	DefaultMaxCapacity int `koanf:"default_max_capacity"`
}

// AuthConfig は静的なベアラートークンの一覧です。
type AuthConfig struct {
	Tokens []TokenConfig `koanf:"tokens"`
}

// TokenConfig はトークンと利用者の対応です。
type TokenConfig struct {
	Token  string `koanf:"token"`
	UserID string `koanf:"user_id"`
	Email  string `koanf:"email"`
	Role   string `koanf:"role"`
}

// Load は指定されたパスの YAML を読み込み、ECAP_ 環境変数で上書きします。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}

	db := &c.Database
	if err := db.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.Log.validateAndNormalize(); err != nil {
		return err
	}

	if c.Capacity.DefaultMaxCapacity == 0 {
		c.Capacity.DefaultMaxCapacity = defaultMaxCapacityPercent
	}
	if c.Capacity.DefaultMaxCapacity < 0 || c.Capacity.DefaultMaxCapacity > 100 {
		return fmt.Errorf("config: capacity.default_max_capacity must be between 1 and 100")
	}

	return c.Auth.validate()
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	if s.MetricsAddr != "" && s.MetricsAddr == s.ListenAddr {
		return fmt.Errorf("config: server.metrics_addr must differ from server.listen_addr")
	}

	timeout, err := parseDurationAllowEmpty(s.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	s.ShutdownTimeout = timeout
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is not supported", l.Level)
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("config: log.format %q is not supported", l.Format)
	}
	return nil
}

func (a AuthConfig) validate() error {
	seen := make(map[string]struct{}, len(a.Tokens))
	for i, t := range a.Tokens {
		if t.Token == "" || t.UserID == "" {
			return fmt.Errorf("config: auth.tokens[%d] requires token and user_id", i)
		}
		if t.Role != "manager" && t.Role != "engineer" {
			return fmt.Errorf("config: auth.tokens[%d].role %q is not supported", i, t.Role)
		}
		if _, dup := seen[t.Token]; dup {
			return fmt.Errorf("config: auth.tokens[%d] duplicates another token", i)
		}
		seen[t.Token] = struct{}{}
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx と golang-migrate 用の接続文字列を返します。資格情報はエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
