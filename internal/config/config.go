package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          string
	ChannelSecret string
	ChannelToken  string
	DBDriver      string // sqlite or postgres
	DBPath        string // sqlite file
	DBDSN         string // postgres DSN
	LogLevel      string
	DemoMode      bool   // in-memory persistence, no database
	FallbackName  string // substituted for {username} when the profile has none
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file loaded")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		ChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),
		ChannelToken:  getEnv("LINE_CHANNEL_TOKEN", ""),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBPath:        getEnv("DB_PATH", "./line-gateway.db"),
		DBDSN:         getEnv("DB_DSN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DemoMode:      getEnv("DEMO_MODE", "") == "true",
		FallbackName:  getEnv("FALLBACK_DISPLAY_NAME", "お客様"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
