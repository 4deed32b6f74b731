// backend-go/internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Barometer BarometerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Drive     DriveConfig
}

type ServerConfig struct {
	Port           string `validate:"required"`
	Mode           string
	LogLevel       string
	LogJSON        bool
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// AppConfig holds the directory layout of a pricing run.
type AppConfig struct {
	InputDir   string `validate:"required"`
	OutputDir  string `validate:"required"`
	DataDir    string `validate:"required"`
	RunTimeout time.Duration
}

// BarometerConfig drives the market indicator fetch and forecast.
type BarometerConfig struct {
	DataDir        string `validate:"required"`
	APIKeysFile    string
	FREDBaseURL    string `validate:"required,url"`
	EIABaseURL     string `validate:"required,url"`
	RequestTimeout time.Duration
	RefreshDays    int `validate:"gte=0"`
	Horizon        int `validate:"gt=0"`
	Workers        int `validate:"gt=0"`
	RatePerSecond  float64
	ClampBounds    bool
}

type DatabaseConfig struct {
	Driver string `validate:"oneof=sqlite pgx postgres"`
	DSN    string `validate:"required"`
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// StorageConfig describes the S3-compatible bucket that receives published outputs.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
	// FolderPath is resolved to a folder id when FolderID is empty.
	FolderPath string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = build()

		// Ensure working directories exist
		ensureDir(instance.App.InputDir)
		ensureDir(instance.App.OutputDir)
		ensureDir(instance.App.DataDir)
		ensureDir(instance.Barometer.DataDir)

		if err := instance.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_JSON", false)
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 300)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("APP_INPUT_DIR", "./data/input")
	viper.SetDefault("APP_OUTPUT_DIR", "./data/output")
	viper.SetDefault("APP_DATA_DIR", "./data")
	viper.SetDefault("APP_RUN_TIMEOUT", "10m")

	viper.SetDefault("BAROMETER_DATA_DIR", "./data/market_barometer")
	viper.SetDefault("BAROMETER_API_KEYS_FILE", "./data/market_barometer/API_Keys.txt")
	viper.SetDefault("FRED_BASE_URL", "https://api.stlouisfed.org")
	viper.SetDefault("EIA_BASE_URL", "https://api.eia.gov")
	viper.SetDefault("BAROMETER_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("BAROMETER_REFRESH_DAYS", 15)
	viper.SetDefault("BAROMETER_HORIZON", 24)
	viper.SetDefault("BAROMETER_WORKERS", 4)
	viper.SetDefault("BAROMETER_RATE_PER_SECOND", 2.0)
	viper.SetDefault("BAROMETER_CLAMP_BOUNDS", false)

	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "./data/pricing.db")

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 86400)

	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_PREFIX", "vbcs")
	viper.SetDefault("STORAGE_USE_SSL", true)
}

func build() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			LogJSON:        viper.GetBool("LOG_JSON"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		App: AppConfig{
			InputDir:   viper.GetString("APP_INPUT_DIR"),
			OutputDir:  viper.GetString("APP_OUTPUT_DIR"),
			DataDir:    viper.GetString("APP_DATA_DIR"),
			RunTimeout: viper.GetDuration("APP_RUN_TIMEOUT"),
		},
		Barometer: BarometerConfig{
			DataDir:        viper.GetString("BAROMETER_DATA_DIR"),
			APIKeysFile:    viper.GetString("BAROMETER_API_KEYS_FILE"),
			FREDBaseURL:    viper.GetString("FRED_BASE_URL"),
			EIABaseURL:     viper.GetString("EIA_BASE_URL"),
			RequestTimeout: viper.GetDuration("BAROMETER_REQUEST_TIMEOUT"),
			RefreshDays:    viper.GetInt("BAROMETER_REFRESH_DAYS"),
			Horizon:        viper.GetInt("BAROMETER_HORIZON"),
			Workers:        viper.GetInt("BAROMETER_WORKERS"),
			RatePerSecond:  viper.GetFloat64("BAROMETER_RATE_PER_SECOND"),
			ClampBounds:    viper.GetBool("BAROMETER_CLAMP_BOUNDS"),
		},
		Database: DatabaseConfig{
			Driver: viper.GetString("DB_DRIVER"),
			DSN:    viper.GetString("DB_DSN"),
		},
		Cache: CacheConfig{
			Enabled:            viper.GetBool("CACHE_ENABLED"),
			RedisURL:           viper.GetString("REDIS_URL"),
			RedisHost:          viper.GetString("REDIS_HOST"),
			RedisPort:          viper.GetString("REDIS_PORT"),
			RedisPassword:      viper.GetString("REDIS_PASSWORD"),
			RedisDB:            viper.GetInt("REDIS_DB"),
			ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   viper.GetBool("STORAGE_ENABLED"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
			FolderPath:      viper.GetString("DRIVE_FOLDER_PATH"),
		},
	}
}

// Validate checks the struct tags and the cross-field rules viper cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Storage.Enabled && (c.Storage.Endpoint == "" || c.Storage.Bucket == "") {
		return fmt.Errorf("storage enabled but STORAGE_ENDPOINT or STORAGE_BUCKET is empty")
	}
	return nil
}

// ForecastTTL returns the configured forecast cache lifetime.
func (c CacheConfig) ForecastTTL() time.Duration {
	return time.Duration(c.ForecastTTLSeconds) * time.Second
}

// ObservationsPath is the persisted indicator history.
func (b BarometerConfig) ObservationsPath() string {
	return filepath.Join(b.DataDir, "inflation_data.csv")
}

// ForecastPath is the persisted forecast output.
func (b BarometerConfig) ForecastPath() string {
	return filepath.Join(b.DataDir, "future_data.csv")
}

// RefreshAge is the maximum age of the history before a refetch.
func (b BarometerConfig) RefreshAge() time.Duration {
	return time.Duration(b.RefreshDays) * 24 * time.Hour
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
