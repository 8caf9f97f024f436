package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// LinkSourceStore 表示前台链接从链接存储读取。
	LinkSourceStore = "store"
	// LinkSourceStatic 表示前台链接来自固定的 YAML 列表。
	LinkSourceStatic = "static"

	// LinkStoreSQLite 使用本地 SQLite 数据库保存链接。
	LinkStoreSQLite = "sqlite"
	// LinkStorePostgREST 使用托管的 PostgREST (Supabase) 表保存链接。
	LinkStorePostgREST = "postgrest"

	// DevSessionSecret 仅在开发环境下作为缺省的会话签名密钥。
	DevSessionSecret = "linkpage-dev-secret"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string `env:"LISTEN_ADDR"`
	Port          string `env:"PORT" envDefault:"8080"`
	Env           string `env:"APP_ENV" envDefault:"production"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"linkpage.db"`
	SessionSecret string `env:"SESSION_SECRET"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`
	GinMode       string `env:"GIN_MODE" envDefault:"release"`

	LinkSource      string `env:"LINK_SOURCE" envDefault:"store"`
	StaticLinksFile string `env:"STATIC_LINKS_FILE"`

	LinkStore   string `env:"LINK_STORE" envDefault:"sqlite"`
	SupabaseURL string `env:"SUPABASE_URL"`
	SupabaseKey string `env:"SUPABASE_KEY"`
	LinksTable  string `env:"LINKS_TABLE" envDefault:"links"`

	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	SuperRootUserName string `env:"SUPER_ROOT_USER_NAME"`
	SuperRootPassword string `env:"SUPER_ROOT_PASSWORD"`
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	if c.Port == "" {
		c.Port = "8080"
	}

	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if c.ListenAddr == "" {
		c.ListenAddr = fmt.Sprintf(":%s", c.Port)
	}

	c.DatabasePath = strings.TrimSpace(c.DatabasePath)
	if c.DatabasePath == "" {
		c.DatabasePath = "linkpage.db"
	}

	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.SessionSecret = strings.TrimSpace(c.SessionSecret)
	if c.SessionSecret == "" && c.IsDevelopment() {
		c.SessionSecret = DevSessionSecret
	}

	c.LinkSource = strings.ToLower(strings.TrimSpace(c.LinkSource))
	if c.LinkSource == "" {
		c.LinkSource = LinkSourceStore
	}
	c.LinkStore = strings.ToLower(strings.TrimSpace(c.LinkStore))
	if c.LinkStore == "" {
		c.LinkStore = LinkStoreSQLite
	}
	c.LinksTable = strings.TrimSpace(c.LinksTable)
	if c.LinksTable == "" {
		c.LinksTable = "links"
	}
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	c.SupabaseKey = strings.TrimSpace(c.SupabaseKey)
	c.StaticLinksFile = strings.TrimSpace(c.StaticLinksFile)
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)

	origins := make([]string, 0, len(c.CORSOrigins))
	for _, origin := range c.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.CORSOrigins = origins

	c.SuperRootUserName = strings.TrimSpace(c.SuperRootUserName)
	c.SuperRootPassword = strings.TrimSpace(c.SuperRootPassword)
}

// Validate 检查互相关联的配置项。
func (c AppConfig) Validate() error {
	// 会话 cookie 以该密钥签名，非开发环境必须显式配置且不能沿用开发密钥
	if !c.IsDevelopment() && (c.SessionSecret == "" || c.SessionSecret == DevSessionSecret) {
		return fmt.Errorf("SESSION_SECRET must be set to a private value outside development")
	}

	switch c.LinkSource {
	case LinkSourceStore, LinkSourceStatic:
	default:
		return fmt.Errorf("unsupported LINK_SOURCE %q", c.LinkSource)
	}

	switch c.LinkStore {
	case LinkStoreSQLite:
	case LinkStorePostgREST:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("LINK_STORE=postgrest requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return fmt.Errorf("unsupported LINK_STORE %q", c.LinkStore)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	return nil
}

// IsDevelopment 判断是否处于本地开发环境。
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}
