package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig PostgreSQL 配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// AnalysisConfig 心律分析服务（HTTP）配置
type AnalysisConfig struct {
	BaseURL    string
	TimeoutSec int // 单次请求超时（秒）
	RetryCount int
}

// Config 床旁监护服务配置
type Config struct {
	Server struct {
		Port            int
		ReadTimeoutSec  int
		WriteTimeoutSec int
	}

	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Analysis AnalysisConfig

	// 床旁服务特定配置
	Bedside struct {
		// 快照刷新间隔（秒），后台循环按此间隔重建活跃住户的诊断快照
		RefreshIntervalSec int

		// 设备指令 ack 超时（秒），超时视为指令失败并回滚本地状态
		AckTimeoutSec int

		// 最近一次成功快照的缓存时长（小时），数据源全部失联时作为降级返回
		SnapshotTTLHours int

		// 历史记录分页
		HistoryPageSize    int
		HistoryMaxPageSize int
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Server.Port = getEnvInt("SERVER_PORT", 8086)
	cfg.Server.ReadTimeoutSec = getEnvInt("SERVER_READ_TIMEOUT", 15)
	cfg.Server.WriteTimeoutSec = getEnvInt("SERVER_WRITE_TIMEOUT", 30)

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "bedside")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-bedside")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Analysis.BaseURL = getEnv("ANALYSIS_BASE_URL", "http://localhost:8000")
	cfg.Analysis.TimeoutSec = getEnvInt("ANALYSIS_TIMEOUT", 30)
	cfg.Analysis.RetryCount = getEnvInt("ANALYSIS_RETRY_COUNT", 3)

	cfg.Bedside.RefreshIntervalSec = getEnvInt("BEDSIDE_REFRESH_INTERVAL", 30)
	cfg.Bedside.AckTimeoutSec = getEnvInt("BEDSIDE_ACK_TIMEOUT", 10)
	cfg.Bedside.SnapshotTTLHours = getEnvInt("BEDSIDE_SNAPSHOT_TTL_HOURS", 24)
	cfg.Bedside.HistoryPageSize = getEnvInt("BEDSIDE_HISTORY_PAGE_SIZE", 20)
	cfg.Bedside.HistoryMaxPageSize = getEnvInt("BEDSIDE_HISTORY_MAX_PAGE_SIZE", 100)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
