package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Addr string `yaml:"-"` // 不从配置文件读取，而是在加载后计算
	} `yaml:"server"`
	SiliconFlow struct {
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		BaseURL     string  `yaml:"base_url"`
		MaxTokens   int     `yaml:"max_tokens"`  // 单次生成的最大输出token数
		Temperature float64 `yaml:"temperature"` // 生成温度
		TimeoutSec  int     `yaml:"timeout_sec"` // 请求超时时间,单位:秒
	} `yaml:"siliconflow"`
	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Output   string `yaml:"output"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`

	DB struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Database        string `yaml:"database"`
		Charset         string `yaml:"charset"`
		ParseTime       bool   `yaml:"parse_time"`
		DSN             string `yaml:"-"`                 // 不从配置文件读取，而是在加载后计算
		MaxOpenConns    int    `yaml:"max_open_conns"`    // 最大打开连接数
		MaxIdleConns    int    `yaml:"max_idle_conns"`    // 最大空闲连接数
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 连接最大生命周期（分钟）
	} `yaml:"database"`
	RateLimit struct {
		MaxPerHour  int `yaml:"max_per_hour"` // 每小时最大生成次数
		MaxPerDay   int `yaml:"max_per_day"`  // 每天最大生成次数
		CooldownSec int `yaml:"cooldown_sec"` // 两次生成之间的最小间隔（秒）
	} `yaml:"rate_limit"`
	Cache struct {
		TTLSec int `yaml:"ttl_sec"` // 推荐缓存有效期（秒），从创建时刻起算
	} `yaml:"cache"`
	Prompt struct {
		MaxTokens           int     `yaml:"max_tokens"`            // 提示词token预算上限
		MaxFieldChars       int     `yaml:"max_field_chars"`       // 单个自由文本字段的最大字符数
		AssumedOutputTokens int     `yaml:"assumed_output_tokens"` // 估算成本时假定的输出token数
		InputPricePerMTok   float64 `yaml:"input_price_per_mtok"`  // 输入价格（元/百万token）
		OutputPricePerMTok  float64 `yaml:"output_price_per_mtok"` // 输出价格（元/百万token）
	} `yaml:"prompt"`
	Scheduler struct {
		CheckIntervalSec   int `yaml:"check_interval_sec"`   // 调度器检查间隔（秒）
		CleanupIntervalSec int `yaml:"cleanup_interval_sec"` // 过期数据清理间隔（秒）
	} `yaml:"scheduler"`
}

func Load() *Config {
	// 首先尝试加载.env文件中的环境变量
	_ = godotenv.Load() // 忽略错误，如果.env文件不存在，继续使用系统环境变量

	var cfg Config

	// 尝试从config.yaml文件加载配置
	if data, err := os.ReadFile("config.yaml"); err == nil {
		err = yaml.Unmarshal(data, &cfg)
		if err != nil {
			log.Printf("Error loading config.yaml: %v, falling back to environment variables", err)
			return loadFromEnv()
		}
		log.Println("Loading configuration from config.yaml")

		// 计算 Server.Addr 字段
		cfg.Server.Addr = cfg.ListenAddr()

		// 从环境变量中加载敏感信息
		// 数据库用户名和密码
		if envUsername := os.Getenv("DATABASE_USERNAME"); envUsername != "" {
			cfg.DB.Username = envUsername
		}
		if envPassword := os.Getenv("DATABASE_PASSWORD"); envPassword != "" {
			cfg.DB.Password = envPassword
		}

		// SiliconFlow API密钥
		if envAPIKey := os.Getenv("SILICONFLOW_API_KEY"); envAPIKey != "" {
			cfg.SiliconFlow.APIKey = envAPIKey
		}

		// 计算 DB.DSN 字段
		if cfg.DB.DSN == "" && cfg.DB.Host != "" {
			cfg.DB.DSN = buildDSN(&cfg)
		}

		cfg.ApplyDefaults()
		return &cfg
	}

	// 如果config.yaml不存在，则完全从环境变量加载配置
	return loadFromEnv()
}

func loadFromEnv() *Config {
	// 当config.yaml加载失败时，创建一个最小配置
	var cfg Config

	// 设置服务器地址
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	cfg.Server.Addr = cfg.ListenAddr()

	// 只从环境变量中加载敏感信息
	// 数据库配置
	if username := os.Getenv("DATABASE_USERNAME"); username != "" {
		cfg.DB.Username = username
	}
	if password := os.Getenv("DATABASE_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	} else if cfg.DB.Host != "" {
		cfg.DB.DSN = buildDSN(&cfg)
	}

	// SiliconFlow API密钥
	if apiKey := os.Getenv("SILICONFLOW_API_KEY"); apiKey != "" {
		cfg.SiliconFlow.APIKey = apiKey
	}

	log.Println("配置从环境变量加载，部分配置可能缺失")
	cfg.ApplyDefaults()
	return &cfg
}

// ListenAddr 返回服务器监听地址，Host为空时监听所有网卡
func (cfg *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
}

func buildDSN(cfg *Config) string {
	if cfg.DB.Charset == "" {
		cfg.DB.Charset = "utf8mb4"
	}

	parseTime := ""
	if cfg.DB.ParseTime {
		parseTime = "&parseTime=true"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s%s",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Database,
		cfg.DB.Charset,
		parseTime)
}

// ApplyDefaults 为零值配置项填充默认值
// 限流阈值沿用线上值：每小时2次、每天5次、冷却5分钟
func (cfg *Config) ApplyDefaults() {
	if cfg.RateLimit.MaxPerHour <= 0 {
		cfg.RateLimit.MaxPerHour = 2
	}
	if cfg.RateLimit.MaxPerDay <= 0 {
		cfg.RateLimit.MaxPerDay = 5
	}
	if cfg.RateLimit.CooldownSec <= 0 {
		cfg.RateLimit.CooldownSec = 300
	}
	if cfg.Cache.TTLSec <= 0 {
		cfg.Cache.TTLSec = 3600
	}
	if cfg.Prompt.MaxTokens <= 0 {
		cfg.Prompt.MaxTokens = 2000
	}
	if cfg.Prompt.MaxFieldChars <= 0 {
		cfg.Prompt.MaxFieldChars = 200
	}
	if cfg.Prompt.AssumedOutputTokens <= 0 {
		cfg.Prompt.AssumedOutputTokens = 1000
	}
	if cfg.Prompt.InputPricePerMTok <= 0 {
		cfg.Prompt.InputPricePerMTok = 4.0
	}
	if cfg.Prompt.OutputPricePerMTok <= 0 {
		cfg.Prompt.OutputPricePerMTok = 16.0
	}
	if cfg.SiliconFlow.Model == "" {
		cfg.SiliconFlow.Model = getenv("SILICONFLOW_MODEL", "Qwen/Qwen2.5-7B-Instruct")
	}
	if cfg.SiliconFlow.BaseURL == "" {
		cfg.SiliconFlow.BaseURL = getenv("SILICONFLOW_BASE_URL", "https://api.siliconflow.cn")
	}
	if cfg.SiliconFlow.MaxTokens <= 0 {
		cfg.SiliconFlow.MaxTokens = 2000
	}
	if cfg.SiliconFlow.Temperature <= 0 {
		cfg.SiliconFlow.Temperature = 0.8
	}
	if cfg.SiliconFlow.TimeoutSec <= 0 {
		cfg.SiliconFlow.TimeoutSec = 60
	}
	if cfg.Scheduler.CheckIntervalSec <= 0 {
		cfg.Scheduler.CheckIntervalSec = 60
	}
	if cfg.Scheduler.CleanupIntervalSec <= 0 {
		cfg.Scheduler.CleanupIntervalSec = 1800
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
