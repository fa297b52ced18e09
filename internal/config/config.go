package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	OCRNone      = "none"
	OCRGemini    = "gemini"
	OCRTesseract = "tesseract"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Storage  StorageConfig  `mapstructure:"storage"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	GeminiModel  string        `mapstructure:"gemini_model"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	QuizTimeout  time.Duration `mapstructure:"quiz_timeout"`
	MatchTimeout time.Duration `mapstructure:"match_timeout"`
	MaxLogLength int           `mapstructure:"max_log_length"`
}

type QuizConfig struct {
	MaxQuestions       int `mapstructure:"max_questions"`
	DefaultQuestions   int `mapstructure:"default_questions"`
	SecondsPerQuestion int `mapstructure:"seconds_per_question"`
}

type StorageConfig struct {
	UploadPath  string `mapstructure:"upload_path"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
	TextLimit   int    `mapstructure:"text_limit"`
}

type OCRConfig struct {
	Provider    string `mapstructure:"provider"`
	Concurrency int    `mapstructure:"concurrency"`
}

type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

var defaults = map[string]any{
	"server.port": "3000",
	"server.env":  "development",

	"database.host":     "localhost",
	"database.port":     "5432",
	"database.user":     "postgres",
	"database.password": "postgres",
	"database.name":     "vericv",
	"database.sslmode":  "disable",

	"llm.provider":       ProviderOpenAI,
	"llm.api_key":        "",
	"llm.base_url":       "",
	"llm.model":          "gpt-4o-mini",
	"llm.gemini_api_key": "",
	"llm.gemini_model":   "gemini-2.5-flash",
	"llm.max_attempts":   3,
	"llm.retry_backoff":  "3s",
	"llm.quiz_timeout":   "60s",
	"llm.match_timeout":  "30s",
	"llm.max_log_length": 200,

	"quiz.max_questions":        20,
	"quiz.default_questions":    10,
	"quiz.seconds_per_question": 60,

	"storage.upload_path":   "./uploads",
	"storage.max_file_size": 10485760,
	"storage.text_limit":    4000,

	"ocr.provider":    OCRNone,
	"ocr.concurrency": 4,

	"cache.redis_addr":     "",
	"cache.redis_password": "",
	"cache.redis_db":       0,
	"cache.ttl":            "1h",

	"auth.jwt_secret": "",
}

// envBindings keeps the flat variable names used by existing deployments.
var envBindings = map[string][]string{
	"server.port":               {"PORT"},
	"server.env":                {"ENV"},
	"database.host":             {"DB_HOST"},
	"database.port":             {"DB_PORT"},
	"database.user":             {"DB_USER"},
	"database.password":         {"DB_PASSWORD"},
	"database.name":             {"DB_NAME"},
	"database.sslmode":          {"DB_SSLMODE"},
	"llm.provider":              {"LLM_PROVIDER"},
	"llm.api_key":               {"LLM_API_KEY", "OPENAI_API_KEY"},
	"llm.base_url":              {"LLM_BASE_URL"},
	"llm.model":                 {"LLM_MODEL"},
	"llm.gemini_api_key":        {"GEMINI_API_KEY"},
	"llm.gemini_model":          {"GEMINI_MODEL"},
	"llm.max_attempts":          {"LLM_MAX_ATTEMPTS"},
	"llm.retry_backoff":         {"LLM_RETRY_BACKOFF"},
	"llm.quiz_timeout":          {"LLM_QUIZ_TIMEOUT"},
	"llm.match_timeout":         {"LLM_MATCH_TIMEOUT"},
	"llm.max_log_length":        {"LLM_MAX_LOG_LENGTH"},
	"quiz.max_questions":        {"QUIZ_MAX_QUESTIONS"},
	"quiz.default_questions":    {"QUIZ_DEFAULT_QUESTIONS"},
	"quiz.seconds_per_question": {"QUIZ_SECONDS_PER_QUESTION"},
	"storage.upload_path":       {"UPLOAD_PATH"},
	"storage.max_file_size":     {"MAX_FILE_SIZE"},
	"storage.text_limit":        {"TEXT_LIMIT"},
	"ocr.provider":              {"OCR_PROVIDER"},
	"ocr.concurrency":           {"OCR_CONCURRENCY"},
	"cache.redis_addr":          {"REDIS_ADDR"},
	"cache.redis_password":      {"REDIS_PASSWORD"},
	"cache.redis_db":            {"REDIS_DB"},
	"cache.ttl":                 {"CACHE_TTL"},
	"auth.jwt_secret":           {"JWT_SECRET"},
}

// Load reads .env (if present), the optional config file and the environment, in increasing priority.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.OCR.Provider = strings.ToLower(strings.TrimSpace(cfg.OCR.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Quiz.MaxQuestions < 1 {
		errs = append(errs, fmt.Errorf("quiz.max_questions must be at least 1, got %d", c.Quiz.MaxQuestions))
	}
	if c.Quiz.DefaultQuestions < 1 || c.Quiz.DefaultQuestions > c.Quiz.MaxQuestions {
		errs = append(errs, fmt.Errorf("quiz.default_questions must be within [1, %d], got %d", c.Quiz.MaxQuestions, c.Quiz.DefaultQuestions))
	}
	if c.Quiz.SecondsPerQuestion < 0 {
		errs = append(errs, fmt.Errorf("quiz.seconds_per_question must not be negative"))
	}
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("llm.max_attempts must be at least 1, got %d", c.LLM.MaxAttempts))
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	switch c.OCR.Provider {
	case OCRNone, OCRGemini, OCRTesseract:
	default:
		errs = append(errs, fmt.Errorf("unknown ocr.provider %q", c.OCR.Provider))
	}
	if c.Storage.TextLimit < 1 {
		errs = append(errs, fmt.Errorf("storage.text_limit must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
