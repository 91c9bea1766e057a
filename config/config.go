package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// AppConfig holds file and environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	App      AppSection      `json:"app"`
	Gin      GinSection      `json:"gin"`
	Database DatabaseSection `json:"database"`
	Redis    RedisSection    `json:"redis"`
	Log      LogSection      `json:"log"`
	Upload   UploadSection   `json:"upload"`
}

// AppSection configures the HTTP server and token issuance.
type AppSection struct {
	Port           string        `json:"Port" env:"APP_PORT" env-default:"5000"`
	JWTSecret      string        `json:"JWTSecret" env:"JWT_SECRET"`
	TokenTTL       time.Duration `json:"TokenTTL" env:"TOKEN_TTL" env-default:"24h"`
	AllowedOrigins []string      `json:"AllowedOrigins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	ReadTimeout    time.Duration `json:"ReadTimeout" env:"READ_TIMEOUT" env-default:"60s"`
	WriteTimeout   time.Duration `json:"WriteTimeout" env:"WRITE_TIMEOUT" env-default:"60s"`
}

// GinSection configures gin mode and its access log.
type GinSection struct {
	Mode    string `json:"Mode" env:"GIN_MODE" env-default:"release"`
	LogPath string `json:"LogPath" env:"GIN_LOG_PATH" env-default:"logs/go_gin.log"`
}

// DatabaseSection selects the gorm dialect and connection parameters.
type DatabaseSection struct {
	// Driver is one of mysql, postgres or sqlite.
	Driver      string `json:"Driver" env:"DB_DRIVER" env-default:"mysql"`
	DatabaseURI string `json:"DatabaseURI" env:"DATABASE_URI"`
	DBHost      string `json:"DBHost" env:"DB_HOST" env-default:"127.0.0.1"`
	DBPort      string `json:"DBPort" env:"DB_PORT"`
	DBUser      string `json:"DBUser" env:"DB_USER" env-default:"root"`
	DBPassword  string `json:"DBPassword" env:"DB_PASSWORD"`
	DBName      string `json:"DBName" env:"DB_NAME" env-default:"inkwell"`
}

// RedisSection enables redis backed token revocation when Addr is set.
type RedisSection struct {
	Addr     string `json:"Addr" env:"REDIS_ADDR"`
	Password string `json:"Password" env:"REDIS_PASSWORD"`
	DB       int    `json:"DB" env:"REDIS_DB"`
}

// LogSection configures the application logger.
type LogSection struct {
	Level      string `json:"Level" env:"LOG_LEVEL" env-default:"info"`
	Path       string `json:"Path" env:"LOG_PATH"`
	MaxSizeMB  int    `json:"MaxSizeMB" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `json:"MaxBackups" env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `json:"MaxAgeDays" env:"LOG_MAX_AGE_DAYS" env-default:"7"`
	Compress   bool   `json:"Compress" env:"LOG_COMPRESS"`
}

// UploadSection configures where uploads live and how large they may be.
type UploadSection struct {
	Dir               string `json:"Dir" env:"UPLOAD_DIR" env-default:"uploads"`
	MaxThumbnailBytes int64  `json:"MaxThumbnailBytes" env:"MAX_THUMBNAIL_BYTES" env-default:"2000000"`
	MaxAvatarBytes    int64  `json:"MaxAvatarBytes" env:"MAX_AVATAR_BYTES" env-default:"500000"`
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// ErrMissingJWTSecret is returned when no signing secret was configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	c, err := Read(configPath())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Read builds a configuration.
// Precedence: .env -> config file -> env-default tags -> environment variable overrides.
func Read(path string) (AppConfig, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	var c AppConfig
	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, &c)
	} else {
		err = cleanenv.ReadEnv(&c)
	}
	if err != nil {
		return AppConfig{}, err
	}

	c.App.AllowedOrigins = trimList(c.App.AllowedOrigins)
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.DBPort == "" {
		c.Database.DBPort = defaultPort(c.Database.Driver)
	}

	if c.App.JWTSecret == "" {
		return AppConfig{}, ErrMissingJWTSecret
	}
	return c, nil
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Set replaces the cached configuration.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join("config", "config.json")
}

func defaultPort(driver string) string {
	switch driver {
	case "postgres":
		return "5432"
	case "mysql":
		return "3306"
	default:
		return ""
	}
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
