package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultAddr = ":8080"

type Environment struct {
	ConfigPath string
	Addr       string
	LogLevel   string
	LogFormat  string
}

// LoadEnvironment reads the .env file when present and then the process environment
func LoadEnvironment() Environment {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env not loaded")
	}

	return Environment{
		ConfigPath: getOrDefault("PROJECTER_CONFIG", DefaultConfigPath),
		Addr:       getOrDefault("PROJECTER_ADDR", DefaultAddr),
		LogLevel:   getOrDefault("LOG_LEVEL", "info"),
		LogFormat:  getOrDefault("LOG_FORMAT", "json"),
	}
}

// ConfigureLogging sets the global zerolog level and output
func (e Environment) ConfigureLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(e.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(e.LogFormat, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func getOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
