package internal

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 服務器配置
//
// 配置來源優先級：環境變量 > 配置文件 > 預設值。
// 監聽端口預設 3000，可由 PORT 環境變量覆蓋；
// 全部房間狀態都在內存中，進程重啟後不保留。
type Config struct {
	Port        int           `mapstructure:"port"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	StartDelay  time.Duration `mapstructure:"start_delay"`
	StaticPath  string        `mapstructure:"static_path"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// LoadConfig 載入配置
//
// 配置文件（config/config.<env>.yaml）可選，找不到時使用預設值。
func LoadConfig(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if env == "" {
		env = "dev"
	}
	v.SetConfigFile(fmt.Sprintf("config/config.%s.yaml", env))

	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("start_delay", "1s")
	v.SetDefault("static_path", "./public")
	v.SetDefault("read_timeout", "15s")

	if err := v.BindEnv("port", "PORT"); err != nil {
		return nil, fmt.Errorf("綁定環境變量失敗: %w", err)
	}

	// 配置文件可選，讀取失敗時只依賴預設值與環境變量
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失敗: %w", err)
	}
	return &cfg, nil
}
