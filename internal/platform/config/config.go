package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Nutrition NutritionConfig `mapstructure:"nutrition"`
	History   HistoryConfig   `mapstructure:"history"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
	// Timezone 决定“今天”是哪一天，例如 "Europe/Berlin"。为空时使用本地时区。
	Timezone string `mapstructure:"timezone"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	// Driver 取值 "sqlite" 或 "postgres"
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 定义了Redis的配置。Address 为空表示不启用Redis。
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 定义了登录会话相关的配置
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwtSecret"`
	TokenTTL   time.Duration `mapstructure:"tokenTTL"`
	CookieName string        `mapstructure:"cookieName"`
}

// NutritionConfig 定义了营养解析(LLM)的配置
type NutritionConfig struct {
	APIKey      string        `mapstructure:"apiKey"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"baseURL"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
	// RateLimit 限制每个用户调用解析的频率，Requests 为0表示不限制
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig 定义了滑动窗口内允许的请求数
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// HistoryConfig 定义了历史视图的窗口
type HistoryConfig struct {
	WindowDays int `mapstructure:"windowDays"`
}

// ReconcileConfig 定义了每日汇总对账任务的配置
type ReconcileConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	WindowDays int           `mapstructure:"windowDays"`
}

// LogConfig 定义了日志输出
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.timezone", "")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "macros.db")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", 7*24*time.Hour)
	v.SetDefault("auth.cookieName", "session")

	v.SetDefault("nutrition.model", "gpt-4o")
	v.SetDefault("nutrition.baseURL", "")
	v.SetDefault("nutrition.timeout", 30*time.Second)
	v.SetDefault("nutrition.temperature", 0.3)
	v.SetDefault("nutrition.rateLimit.requests", 60)
	v.SetDefault("nutrition.rateLimit.window", time.Hour)

	v.SetDefault("history.windowDays", 7)

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.interval", 30*time.Minute)
	v.SetDefault("reconcile.windowDays", 7)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件；找不到文件时使用默认值和环境变量
func LoadConfig() (*Config, error) {
	// 1. 先加载 .env，让密钥类配置可以通过环境变量传入
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法加载 .env 文件: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 2. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:9090
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OPENAI_API_KEY 是约定俗成的变量名，单独绑定
	_ = v.BindEnv("nutrition.apiKey", "NUTRITION_APIKEY", "OPENAI_API_KEY")
	_ = v.BindEnv("nutrition.model", "NUTRITION_MODEL", "OPENAI_MODEL")

	// 4. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	// 5. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 拒绝无法使用的配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn 不能为空")
	}
	if c.Server.Mode == "release" && c.Auth.JWTSecret == "" {
		return errors.New("release 模式下必须配置 auth.jwtSecret")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTTL 必须为正数")
	}
	if c.Nutrition.RateLimit.Requests < 0 || (c.Nutrition.RateLimit.Requests > 0 && c.Nutrition.RateLimit.Window <= 0) {
		return errors.New("nutrition.rateLimit 配置无效")
	}
	if c.History.WindowDays <= 0 {
		return errors.New("history.windowDays 必须为正数")
	}
	if c.Reconcile.Enabled && (c.Reconcile.Interval <= 0 || c.Reconcile.WindowDays <= 0) {
		return errors.New("reconcile.interval 和 reconcile.windowDays 必须为正数")
	}
	if _, err := c.Server.Location(); err != nil {
		return err
	}
	return nil
}

// Location 返回用于计算日期的时区
func (s ServerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无效的时区 %q: %w", s.Timezone, err)
	}
	return loc, nil
}
