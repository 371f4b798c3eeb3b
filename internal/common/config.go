package common

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joseph-ayodele/rfp-agent/constants"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Watch  WatchConfig  `mapstructure:"watch"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP and gRPC server settings
type ServerConfig struct {
	HTTPAddr       string        `mapstructure:"http_addr"`
	GRPCAddr       string        `mapstructure:"grpc_addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	UploadDir      string        `mapstructure:"upload_dir"`
	MaxUploadMB    int64         `mapstructure:"max_upload_mb"`
}

// OCRConfig holds external tool and fallback settings for text extraction
type OCRConfig struct {
	Pdftotext      string        `mapstructure:"pdftotext"`
	Pdftoppm       string        `mapstructure:"pdftoppm"`
	Tesseract      string        `mapstructure:"tesseract"`
	TesseractLang  string        `mapstructure:"tesseract_lang"`
	TessdataDir    string        `mapstructure:"tessdata_dir"`
	DPI            int           `mapstructure:"dpi"`
	MaxPages       int           `mapstructure:"max_pages"`
	ScratchDir     string        `mapstructure:"scratch_dir"`
	ToolTimeout    time.Duration `mapstructure:"tool_timeout"`
	MinDirectChars int           `mapstructure:"min_direct_chars"`
	PDFTextEngine  string        `mapstructure:"pdf_text_engine"` // "pdftotext" | "native"
	OCREngine      string        `mapstructure:"ocr_engine"`      // "tesseract" | "gosseract"
}

// CacheConfig selects the extraction cache backend
type CacheConfig struct {
	Driver        string        `mapstructure:"driver"` // "memory" | "redis" | "none"
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"` // memory driver only
}

// AgentConfig holds orchestrator settings
type AgentConfig struct {
	OutputDir      string        `mapstructure:"output_dir"`
	KnowledgeDir   string        `mapstructure:"knowledge_dir"`
	ReviewStage    string        `mapstructure:"review_stage"`
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
}

// WatchConfig holds inbox watcher settings
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	InboxDir string        `mapstructure:"inbox_dir"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from RFP_-prefixed environment variables and,
// when RFP_CONFIG_FILE is set, from that YAML file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RFP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file := os.Getenv("RFP_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "decode config", err)
	}
	// viper does not split comma lists coming from env
	if len(cfg.Server.AllowedOrigins) == 1 && strings.Contains(cfg.Server.AllowedOrigins[0], ",") {
		cfg.Server.AllowedOrigins = strings.Split(cfg.Server.AllowedOrigins[0], ",")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", ":5000")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("server.upload_dir", "./uploads")
	v.SetDefault("server.max_upload_mb", 50)

	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.tesseract_lang", "eng")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.scratch_dir", filepath.Join(os.TempDir(), "pdf_pages_for_ocr"))
	v.SetDefault("ocr.tool_timeout", "2m")
	v.SetDefault("ocr.min_direct_chars", constants.DefaultMinDirectChars)
	v.SetDefault("ocr.pdf_text_engine", "pdftotext")
	v.SetDefault("ocr.ocr_engine", "tesseract")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 512)

	v.SetDefault("agent.output_dir", "./generated_proposals")
	v.SetDefault("agent.knowledge_dir", "./knowledge_base_data")
	v.SetDefault("agent.review_stage", "Gold Team Final Review")
	v.SetDefault("agent.workers", 2)
	v.SetDefault("agent.queue_size", 64)
	v.SetDefault("agent.process_timeout", "10m")

	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.inbox_dir", "./inbox")
	v.SetDefault("watch.debounce", "500ms")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.MinDirectChars < 0 {
		return NewAppError("CONFIG_ERROR", "ocr.min_direct_chars must not be negative", ErrInvalidInput)
	}
	if c.OCR.ToolTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "ocr.tool_timeout must be positive", ErrInvalidInput)
	}
	switch c.OCR.PDFTextEngine {
	case "pdftotext", "native":
	default:
		return NewAppError("CONFIG_ERROR", "ocr.pdf_text_engine must be pdftotext or native", ErrInvalidInput)
	}
	switch c.OCR.OCREngine {
	case "tesseract", "gosseract":
	default:
		return NewAppError("CONFIG_ERROR", "ocr.ocr_engine must be tesseract or gosseract", ErrInvalidInput)
	}
	switch c.Cache.Driver {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return NewAppError("CONFIG_ERROR", "cache.redis_addr is required for the redis driver", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "cache.driver must be memory, redis or none", ErrInvalidInput)
	}
	if c.Agent.OutputDir == "" || c.Agent.KnowledgeDir == "" {
		return NewAppError("CONFIG_ERROR", "agent.output_dir and agent.knowledge_dir are required", ErrInvalidInput)
	}
	if c.Watch.Enabled && c.Watch.InboxDir == "" {
		return NewAppError("CONFIG_ERROR", "watch.inbox_dir is required when watching", ErrInvalidInput)
	}
	return nil
}
