package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
// 启动时加载一次，之后只读
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	Web    WebConfig    `mapstructure:"web"`
	Chunk  ChunkConfig  `mapstructure:"chunk"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`                                     // 服务器主机
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`          // 服务器端口
	Mode         string        `mapstructure:"mode" validate:"oneof=debug release test"` // gin运行模式
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`            // 读取超时
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`           // 写入超时
	MaxUploadMB  int64         `mapstructure:"max_upload_mb" validate:"min=1"`           // 上传文件大小上限
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"` // 日志级别
	File       string `mapstructure:"file"`                                         // 日志文件，为空时只输出到标准输出
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`                 // 单个日志文件大小
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`                 // 保留的旧日志数量
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`                // 旧日志保留天数
}

// OCRConfig OCR配置
type OCRConfig struct {
	Languages string `mapstructure:"languages" validate:"required"` // tesseract语言，例如tha+eng
	DPI       int    `mapstructure:"dpi" validate:"min=1"`          // 栅格化分辨率
}

// WebConfig 网页抓取配置
type WebConfig struct {
	UserAgent         string        `mapstructure:"user_agent"`
	StaticTimeout     time.Duration `mapstructure:"static_timeout" validate:"gt=0"`      // 静态抓取超时
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" validate:"gt=0"`  // 渲染导航超时
	ScrollInterval    time.Duration `mapstructure:"scroll_interval" validate:"gt=0"`     // 滚动间隔
	ScrollSettle      time.Duration `mapstructure:"scroll_settle" validate:"gt=0"`       // 滚动持续时间
	FallbackThreshold int           `mapstructure:"fallback_threshold" validate:"gte=0"` // 静态文本回退阈值
	URLConcurrency    int           `mapstructure:"url_concurrency" validate:"min=1"`    // 多URL并发数
	MaxRedirects      int           `mapstructure:"max_redirects" validate:"min=1"`      // 最大重定向次数
	MaxBodyMB         int           `mapstructure:"max_body_mb" validate:"min=1"`        // 静态抓取响应体上限
	ChromePath        string        `mapstructure:"chrome_path"`                         // Chrome可执行文件路径
}

// ChunkConfig 默认分块配置
type ChunkConfig struct {
	Size       int      `mapstructure:"size" validate:"min=1"`                 // 分块大小
	Overlap    int      `mapstructure:"overlap" validate:"gte=0,ltfield=Size"` // 分块重叠
	Separators []string `mapstructure:"separators"`                            // 分隔符
}

var validate = validator.New()

// Load 从文件和环境变量加载配置
// configPath为空时只使用默认值和环境变量，不会写入任何文件
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// 支持环境变量覆盖，例如 WEB_FALLBACK_THRESHOLD
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// TESS_LANGS 沿用tesseract的常见变量名
	if err := v.BindEnv("ocr.languages", "TESS_LANGS", "OCR_LANGUAGES"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr 返回监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5002)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s") // 多URL渲染可能很慢
	v.SetDefault("server.max_upload_mb", 64)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// OCR默认配置
	v.SetDefault("ocr.languages", "tha+eng")
	v.SetDefault("ocr.dpi", 300)

	// 网页抓取默认配置
	v.SetDefault("web.user_agent", "Mozilla/5.0 (compatible; doc-extract-service/1.0)")
	v.SetDefault("web.static_timeout", "30s")
	v.SetDefault("web.navigation_timeout", "20s")
	v.SetDefault("web.scroll_interval", "250ms")
	v.SetDefault("web.scroll_settle", "1200ms")
	v.SetDefault("web.fallback_threshold", 500)
	v.SetDefault("web.url_concurrency", 1)
	v.SetDefault("web.max_redirects", 10)
	v.SetDefault("web.max_body_mb", 10)
	v.SetDefault("web.chrome_path", "")

	// 分块默认配置
	v.SetDefault("chunk.size", 1200)
	v.SetDefault("chunk.overlap", 200)
	v.SetDefault("chunk.separators", []string{"\n\n", "\n", " ", ""})
}
