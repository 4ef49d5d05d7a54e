package config

import (
	"log"
	"os"
	"time"

	"CareAlert/pkg/cache"
	"CareAlert/pkg/logger"
	"CareAlert/pkg/util"
)

// DefaultAttentionWindow 未配置时的注意力窗口取值
const DefaultAttentionWindow = 20 * time.Second

type Config struct {
	Addr        string `env:"ADDR"`
	Mode        string `env:"MODE"`
	APIPrefix   string `env:"API_PREFIX"`
	AdminPrefix string `env:"ADMIN_PREFIX"`
	DSN         string `env:"DSN"`

	// AttentionWindow 警报注意力窗口，支持 "20s"、"2m" 这类时长写法
	AttentionWindow time.Duration `env:"ALERT_ATTENTION_WINDOW"`

	Log   logger.LogConfig
	Cache cache.Config
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	window := util.GetDurationEnv("ALERT_ATTENTION_WINDOW")
	if window <= 0 {
		window = DefaultAttentionWindow
	}

	GlobalConfig = &Config{
		Addr:            util.GetEnvDefault("ADDR", ":8080"),
		Mode:            util.GetEnvDefault("MODE", "debug"),
		APIPrefix:       util.GetEnvDefault("API_PREFIX", "/api"),
		AdminPrefix:     util.GetEnvDefault("ADMIN_PREFIX", "/admin"),
		DSN:             util.GetEnv("DSN"),
		AttentionWindow: window,
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
				PoolSize: int(util.GetIntEnv("REDIS_POOL_SIZE")),
			},
			Local: cache.LocalConfig{
				DefaultExpiration: util.GetDurationEnv("CACHE_DEFAULT_EXPIRATION"),
				CleanupInterval:   util.GetDurationEnv("CACHE_CLEANUP_INTERVAL"),
			},
		},
	}
	return nil
}
