// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"sync/atomic"

	"souq/internal/pkg/logger"
	"souq/internal/pkg/nacos"

	"gopkg.in/yaml.v3"
)

// Config 是引擎的全量配置。
// 本地 YAML 文件负责兜底，接入 Nacos 配置中心后支持热更新，
// 读取方永远通过 GetCurrentConfig 拿到一个完整的快照。
type Config struct {
	App struct {
		// 广告自动发布后的默认有效期（天）
		AdTTLDays int `yaml:"adTtlDays"`
		// 预订（部分付款）默认的保留时长（小时）
		ReservationHoldHours int `yaml:"reservationHoldHours"`
		// 清扫轮询间隔（秒）
		SweepIntervalSeconds int `yaml:"sweepIntervalSeconds"`
		// 卖家信任规则，CEL 表达式。为空时只认调用方传入的 trusted 标记。
		// 例: "owner_verified || owner_role == 'operator'"
		TrustRule string `yaml:"trustRule"`
		// 类目交易配置，key 为类目 ID。未配置的类目不开通在线交易。
		Categories map[string]CategorySettings `yaml:"categories"`
	} `yaml:"app"`

	Infra struct {
		MysqlDSN     string `yaml:"mysqlDsn"`
		RedisAddrs   string `yaml:"redisAddrs"`
		KafkaBrokers string `yaml:"kafkaBrokers"`
		Jaeger       struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Servers string `yaml:"servers"`
		} `yaml:"zookeeper"`
	} `yaml:"infra"`
}

// CategorySettings 是单个类目的交易配置。
// 金额边界为 0 表示该侧无界。
type CategorySettings struct {
	AllowCart             bool    `yaml:"allowCart"`
	ReservationPercentage float64 `yaml:"reservationPercentage"`
	MinReservationAmount  float64 `yaml:"minReservationAmount"`
	MaxReservationAmount  float64 `yaml:"maxReservationAmount"`
}

const configDataID = "souq-engine.yaml"

var currentConfig atomic.Value // 保存 *Config

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.AdTTLDays = 30
	cfg.App.ReservationHoldHours = 48
	cfg.App.SweepIntervalSeconds = 60
	cfg.Infra.MysqlDSN = getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/souq?parseTime=true")
	cfg.Infra.RedisAddrs = getEnv("REDIS_ADDRS", "localhost:6379")
	cfg.Infra.KafkaBrokers = getEnv("KAFKA_BROKERS", "localhost:9092")
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	cfg.Infra.Zookeeper.Servers = getEnv("ZK_SERVERS", "localhost:2181")
	return cfg
}

// Init 加载配置。优先级：默认值 < 本地文件(CONFIG_FILE) < Nacos 配置中心。
// 必须在 StartService 之前调用。
func Init() {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("path", path).Msg("cannot read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logger.Logger.Fatal().Err(err).Str("path", path).Msg("cannot parse config file")
		}
	}

	currentConfig.Store(cfg)
}

// GetCurrentConfig 返回当前配置快照。
func GetCurrentConfig() *Config {
	return currentConfig.Load().(*Config)
}

// watchConfigCenter 在 Nacos 可用时拉取远端配置并保持监听。
// 远端配置以当前配置为基底做增量覆盖，解析失败只告警不切换。
func watchConfigCenter(client *nacos.Client) {
	apply := func(content string) {
		if content == "" {
			return
		}
		next := *GetCurrentConfig()
		if err := yaml.Unmarshal([]byte(content), &next); err != nil {
			logger.Logger.Warn().Err(err).Msg("invalid config from nacos, keeping previous")
			return
		}
		currentConfig.Store(&next)
		logger.Logger.Info().Msg("config reloaded from nacos")
	}

	content, err := client.GetConfig(configDataID)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("could not fetch config from nacos, using local config")
	} else {
		apply(content)
	}

	if err := client.ListenConfig(configDataID, apply); err != nil {
		logger.Logger.Warn().Err(err).Msg("could not listen for config changes")
	}
}

// getEnv 从环境变量读取配置，带默认值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
