package config

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"
)

const defaultConfigPath = "configs/config_local.toml"

type MainConfig struct {
	AppName     string `toml:"appName"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	InternalKey string `toml:"internalKey"`
	EnableTLS   bool   `toml:"enableTLS"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type MongoConfig struct {
	Uri                string `toml:"uri"`
	Database           string `toml:"database"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	AuthSource         string `toml:"authSource"`
	MaxPoolSize        int    `toml:"maxPoolSize"`
	MaxRetry           int    `toml:"maxRetry"`
	ThreadCollection   string `toml:"threadCollection"`
	MessageCollection  string `toml:"messageCollection"`
	ConnectTimeoutSecs int    `toml:"connectTimeoutSecs"`
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

type KafkaConfig struct {
	Brokers         []string `toml:"brokers"`
	ClientID        string   `toml:"clientID"`
	NotifyTopic     string   `toml:"notifyTopic"`
	ConsumerGroupID string   `toml:"consumerGroupID"`
	Partitions      int32    `toml:"partitions"`
	Replication     int16    `toml:"replication"`
}

type LogConfig struct {
	LogPath    string `toml:"logPath"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"maxSizeMB"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAgeDays int    `toml:"maxAgeDays"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

// PushConfig FCM 推送网关配置
type PushConfig struct {
	Enabled         bool   `toml:"enabled"`
	ProjectID       string `toml:"projectID"`
	CredentialsFile string `toml:"credentialsFile"`
	DryRun          bool   `toml:"dryRun"`
	BatchSize       int    `toml:"batchSize"`
	MaxConcurrency  int    `toml:"maxConcurrency"`
	MaxErrors       int    `toml:"maxErrors"`
	RatePerSecond   int    `toml:"ratePerSecond"`
}

type DeviceConfig struct {
	MaxDevicesPerUser int `toml:"maxDevicesPerUser"`
}

type NotificationConfig struct {
	PushOnlyKinds        []string `toml:"pushOnlyKinds"`
	CoalesceKinds        []string `toml:"coalesceKinds"`
	PresenceStaleSeconds int      `toml:"presenceStaleSeconds"`
}

type ArchiveConfig struct {
	Enabled     bool   `toml:"enabled"`
	Cron        string `toml:"cron"`
	MaxAgeHours int    `toml:"maxAgeHours"`
	PageSize    int    `toml:"pageSize"`
}

type Config struct {
	MainConfig         `toml:"mainConfig"`
	MysqlConfig        `toml:"mysqlConfig"`
	MongoConfig        `toml:"mongoConfig"`
	RedisConfig        `toml:"redisConfig"`
	KafkaConfig        `toml:"kafkaConfig"`
	LogConfig          `toml:"logConfig"`
	JwtConfig          `toml:"jwtConfig"`
	PushConfig         `toml:"pushConfig"`
	DeviceConfig       `toml:"deviceConfig"`
	NotificationConfig `toml:"notificationConfig"`
	ArchiveConfig      `toml:"archiveConfig"`
}

var config *Config

// Default 返回带默认值的配置，配置文件中未出现的字段保持默认
func Default() *Config {
	return &Config{
		MainConfig:  MainConfig{AppName: "MediaHub", Host: "0.0.0.0", Port: 8000},
		MongoConfig: MongoConfig{Database: "mediahub", MaxPoolSize: 20, MaxRetry: 3, ThreadCollection: "chats", MessageCollection: "chat_messages", ConnectTimeoutSecs: 10},
		KafkaConfig: KafkaConfig{NotifyTopic: "mediahub.notify", ConsumerGroupID: "mediahub-notify", Partitions: 3, Replication: 1},
		LogConfig:   LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 10, MaxAgeDays: 30},
		JwtConfig:   JwtConfig{ExpireHours: 24},
		PushConfig:  PushConfig{BatchSize: 500, MaxConcurrency: 5, MaxErrors: 10},
		DeviceConfig: DeviceConfig{
			MaxDevicesPerUser: 20,
		},
		NotificationConfig: NotificationConfig{
			PushOnlyKinds:        []string{"message"},
			CoalesceKinds:        []string{"message"},
			PresenceStaleSeconds: 300,
		},
		ArchiveConfig: ArchiveConfig{Enabled: true, Cron: "0 * * * *", MaxAgeHours: 24, PageSize: 500},
	}
}

// LoadConfig 从指定路径解码 TOML，path 为空时依次使用 MEDIAHUB_CONFIG 和默认路径
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MEDIAHUB_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}
	conf := Default()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return conf, err
	}
	return conf, nil
}

func GetConfig() *Config {
	if config == nil {
		conf, err := LoadConfig("")
		if err != nil {
			log.Printf("加载配置文件失败: %v, 使用默认设置", err)
		}
		config = conf
	}
	return config
}

// SetConfig 替换全局配置（命令行指定配置文件时使用）
func SetConfig(c *Config) {
	config = c
}
