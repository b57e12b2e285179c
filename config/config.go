package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the orchestrator configuration.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Audio node control endpoint. The node performs the actual decoding
	// and streaming; we only drive it over REST + websocket.
	NodeHost     string
	NodePort     string
	NodePassword string

	SpotifyBaseURL      string
	SpotifyClientID     string
	SpotifyClientSecret string

	// LocalMediaRoot is the only directory local track queries may resolve
	// under. Paths escaping it are rejected.
	LocalMediaRoot string

	CacheLevel   int
	CacheAgeDays int

	QueueCap       int
	MaxTrackLength int // seconds, 0 = unlimited
	VoteRatio      float64
	ErrorThreshold int
	ErrorWindowSec int
	EmptyDCTimer   int // seconds before idle disconnect, 0 = disabled
	DailyAgeDays   int // age after which daily playlists are scheduled for deletion

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "guildfm"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		NodeHost:     getEnv("NODE_HOST", "localhost"),
		NodePort:     getEnv("NODE_PORT", "2333"),
		NodePassword: getEnv("NODE_PASSWORD", "youshallnotpass"),

		SpotifyBaseURL:      getEnv("SPOTIFY_BASE_URL", "https://api.spotify.com/v1"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),

		LocalMediaRoot: getEnv("LOCAL_MEDIA_ROOT", "localtracks"),

		CacheLevel:   getEnvInt("CACHE_LEVEL", 0),
		CacheAgeDays: getEnvInt("CACHE_AGE_DAYS", 365),

		QueueCap:       getEnvInt("QUEUE_CAP", 10000),
		MaxTrackLength: getEnvInt("MAX_TRACK_LENGTH", 0),
		VoteRatio:      getEnvFloat("VOTE_RATIO", 2.5),
		ErrorThreshold: getEnvInt("ERROR_THRESHOLD", 3),
		ErrorWindowSec: getEnvInt("ERROR_WINDOW_SEC", 60),
		EmptyDCTimer:   getEnvInt("EMPTY_DC_TIMER", 0),
		DailyAgeDays:   getEnvInt("DAILY_AGE_DAYS", 30),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
