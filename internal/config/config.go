package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ListenAddr    string
	DatabaseURL   string
	JWTSecret     string
	ProgramID     string
	MetricsUser   string
	MetricsPass   string
	FaucetEnabled bool
}

// Subscription accounts everywhere derive from this program id; changing it
// moves every address.
const DefaultProgramID = "8hSScVud3dY7iV2r4aGDFBduXAZh5j31X3P8GnCaznZd"

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Msg(".env file not found")
	}

	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ProgramID:     getEnv("PROGRAM_ID", DefaultProgramID),
		MetricsUser:   getEnv("METRICS_USER", "metrics"),
		MetricsPass:   os.Getenv("METRICS_PASS"),
		FaucetEnabled: os.Getenv("FAUCET_ENABLED") == "true",
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
