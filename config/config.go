package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OSS      OSSConfig      `mapstructure:"oss"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Render   RenderConfig   `mapstructure:"render"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Credits  CreditsConfig  `mapstructure:"credits"`
	School   SchoolConfig   `mapstructure:"school"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

// GeminiConfig 生成模型配置（文本/视觉/图片/语音共用一个 API Key）
type GeminiConfig struct {
	APIKey      string `mapstructure:"api_key"`
	TextModel   string `mapstructure:"text_model"`
	VisionModel string `mapstructure:"vision_model"`
	ImageModel  string `mapstructure:"image_model"`
	SpeechModel string `mapstructure:"speech_model"`
	Endpoint    string `mapstructure:"endpoint"` // REST 基地址，留空使用官方地址
}

// RenderConfig 第三方视频渲染服务配置
type RenderConfig struct {
	Endpoint            string `mapstructure:"endpoint"`
	APIKey              string `mapstructure:"api_key"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	MaxPollAttempts     int    `mapstructure:"max_poll_attempts"`
	SceneDurationSecs   int    `mapstructure:"scene_duration_seconds"`
}

type QueueConfig struct {
	RenderQueue string `mapstructure:"render_queue"`
	MaxWorkers  int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// CreditsConfig 故事生成额度规则
type CreditsConfig struct {
	MonthlyFreeLimit  int                   `mapstructure:"monthly_free_limit"`  // 免费用户每月额度
	MonthlyTrialLimit int                   `mapstructure:"monthly_trial_limit"` // 免费用户每月高级体验次数
	Packs             map[string]PackConfig `mapstructure:"packs"`
}

// PackConfig 充值包：购买后升级套餐并增加钱包余额
type PackConfig struct {
	Plan        string  `mapstructure:"plan"` // premium, enterprise
	Credits     int     `mapstructure:"credits"`
	Price       float64 `mapstructure:"price"`
	DisplayName string  `mapstructure:"display_name"`
}

// SchoolConfig 学校版配置
type SchoolConfig struct {
	StoryPackageSize int `mapstructure:"story_package_size"` // 每个学校账号的故事包大小
	MaxStudents      int `mapstructure:"max_students"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Credits.MonthlyFreeLimit <= 0 {
		cfg.Credits.MonthlyFreeLimit = 3
	}
	if cfg.Credits.MonthlyTrialLimit <= 0 {
		cfg.Credits.MonthlyTrialLimit = 1
	}
	if cfg.School.StoryPackageSize <= 0 {
		cfg.School.StoryPackageSize = 10
	}
	if cfg.School.MaxStudents <= 0 {
		cfg.School.MaxStudents = 30
	}
	if cfg.Render.PollIntervalSeconds <= 0 {
		cfg.Render.PollIntervalSeconds = 5
	}
	if cfg.Render.MaxPollAttempts <= 0 {
		cfg.Render.MaxPollAttempts = 60
	}
	if cfg.Render.SceneDurationSecs <= 0 {
		cfg.Render.SceneDurationSecs = 8
	}
}
