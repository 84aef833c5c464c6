package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AdminAPI      AdminAPIConfig
	OpenTelemetry OpenTelemetryConfig
	Webhook       WebhookConfig
	Commission    CommissionConfig
	Notification  NotificationConfig
	Environment   string
	LogLevel      string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port            int
	GRPCPort        int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig Redis設定
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	Enabled   bool
	ReplayTTL time.Duration // 処理済みイベントを記憶する期間
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AdminAPIConfig 管理API設定
type AdminAPIConfig struct {
	Enabled    bool
	APIKey     string
	AllowedIPs []string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "none"
	MetricsExporter string // "otlp", "none"
}

// WebhookConfig 決済ゲートウェイWebhook設定
type WebhookConfig struct {
	Secret          string
	SignatureHeader string
	MaxBodyBytes    int64
}

// CommissionConfig 手数料設定（パーセンテージ）
type CommissionConfig struct {
	Rate    decimal.Decimal
	TaxRate decimal.Decimal
}

// NotificationConfig 通知設定
type NotificationConfig struct {
	Enabled     bool
	Timeout     time.Duration
	AdminEmails []string
	SMTP        SMTPConfig
	WhatsApp    WhatsAppConfig
}

// SMTPConfig メール送信設定
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// WhatsAppConfig メッセージ送信設定
type WhatsAppConfig struct {
	Enabled  bool
	Endpoint string
	Token    string
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	port := getEnvAsInt("SERVER_PORT", 8080)

	commissionRate, err := getEnvAsDecimal("COMMISSION_RATE")
	if err != nil {
		return nil, err
	}
	taxRate, err := getEnvAsDecimal("COMMISSION_TAX_RATE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:            port,
			GRPCPort:        getEnvAsInt("GRPC_PORT", port+1),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "booking_ledger"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnvAsInt("REDIS_PORT", 6379),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			Enabled:   getEnvAsBool("REDIS_ENABLED", false),
			ReplayTTL: getEnvAsDuration("REDIS_REPLAY_TTL", 24*time.Hour),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "booking-ledger"),
		},
		AdminAPI: AdminAPIConfig{
			Enabled:    getEnvAsBool("ADMIN_API_ENABLED", false),
			APIKey:     getEnv("ADMIN_API_KEY", ""),
			AllowedIPs: getEnvAsList("ADMIN_API_ALLOWED_IPS"),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "booking-ledger"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
		},
		Webhook: WebhookConfig{
			Secret:          getEnv("WEBHOOK_SECRET", ""),
			SignatureHeader: getEnv("WEBHOOK_SIGNATURE_HEADER", "X-Razorpay-Signature"),
			MaxBodyBytes:    int64(getEnvAsInt("WEBHOOK_MAX_BODY_BYTES", 1<<20)),
		},
		Commission: CommissionConfig{
			Rate:    commissionRate,
			TaxRate: taxRate,
		},
		Notification: NotificationConfig{
			Enabled:     getEnvAsBool("NOTIFY_ENABLED", true),
			Timeout:     getEnvAsDuration("NOTIFY_TIMEOUT", 30*time.Second),
			AdminEmails: getEnvAsList("NOTIFY_ADMIN_EMAILS"),
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", ""),
				Port:     getEnvAsInt("SMTP_PORT", 587),
				Username: getEnv("SMTP_USERNAME", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
				From:     getEnv("SMTP_FROM", ""),
			},
			WhatsApp: WhatsAppConfig{
				Enabled:  getEnvAsBool("WHATSAPP_ENABLED", false),
				Endpoint: getEnv("WHATSAPP_ENDPOINT", ""),
				Token:    getEnv("WHATSAPP_TOKEN", ""),
			},
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if c.Webhook.SignatureHeader == "" {
		return fmt.Errorf("WEBHOOK_SIGNATURE_HEADER must not be empty")
	}
	if !isPercentage(c.Commission.Rate) {
		return fmt.Errorf("COMMISSION_RATE must be between 0 and 100")
	}
	if !isPercentage(c.Commission.TaxRate) {
		return fmt.Errorf("COMMISSION_TAX_RATE must be between 0 and 100")
	}
	if c.AdminAPI.Enabled && c.AdminAPI.APIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required when ADMIN_API_ENABLED is true")
	}
	if c.Notification.WhatsApp.Enabled && c.Notification.WhatsApp.Endpoint == "" {
		return fmt.Errorf("WHATSAPP_ENDPOINT is required when WHATSAPP_ENABLED is true")
	}
	return nil
}

func isPercentage(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address Redis接続アドレスを返す
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPEnabled メール送信が設定されているかどうか
func (c *NotificationConfig) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList カンマ区切りの環境変数をリストとして取得
func getEnvAsList(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// getEnvAsDecimal 必須の環境変数を10進数として取得
func getEnvAsDecimal(key string) (decimal.Decimal, error) {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", key, err)
	}
	return value, nil
}
