package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Geocoding GeocodingConfig
	FCM       FCMConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Development reports whether the service runs under a development
// configuration; error responses then include extra detail.
func (s ServerConfig) Development() bool {
	return s.Environment == "development"
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AuthConfig configures token verification. When Issuer is set an OIDC
// verifier is used (e.g. https://securetoken.google.com/<project> for
// Firebase ID tokens); otherwise a shared-secret HS256 verifier is available
// for development deployments.
type AuthConfig struct {
	Issuer    string
	Audience  string
	JWTSecret string
}

type GeocodingConfig struct {
	GoogleAPIKey string
	NominatimURL string
	UserAgent    string
	CacheTTL     time.Duration
}

type FCMConfig struct {
	Endpoint  string
	ServerKey string
}

type MatchingConfig struct {
	RadiusMiles float64
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "donr")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("GEOCODING_NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("GEOCODING_USER_AGENT", "Donr-App/1.0")
	viper.SetDefault("GEOCODING_CACHE_TTL_HOURS", 24)
	viper.SetDefault("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send")
	viper.SetDefault("MATCHING_RADIUS_MILES", 10)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Auth: AuthConfig{
			Issuer:    viper.GetString("AUTH_ISSUER"),
			Audience:  viper.GetString("AUTH_AUDIENCE"),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Geocoding: GeocodingConfig{
			GoogleAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
			NominatimURL: viper.GetString("GEOCODING_NOMINATIM_URL"),
			UserAgent:    viper.GetString("GEOCODING_USER_AGENT"),
			CacheTTL:     time.Duration(viper.GetInt("GEOCODING_CACHE_TTL_HOURS")) * time.Hour,
		},
		FCM: FCMConfig{
			Endpoint:  viper.GetString("FCM_ENDPOINT"),
			ServerKey: os.Getenv("FCM_SERVER_KEY"),
		},
		Matching: MatchingConfig{
			RadiusMiles: viper.GetFloat64("MATCHING_RADIUS_MILES"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.Auth.Issuer == "" && cfg.Auth.JWTSecret == "" {
		log.Println("WARNING: neither AUTH_ISSUER nor JWT_SECRET is set; token verification is unavailable")
	}

	return cfg, nil
}
