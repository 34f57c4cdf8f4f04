package util

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string `validate:"required,number"`
	AllowedOrigins []string
	RoomIdleTTL    time.Duration
	LogLevel       string
}

const defaultRoomIdleTTL = 10 * time.Minute

func LoadConfig() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:        os.Getenv("PORT"),
		RoomIdleTTL: defaultRoomIdleTTL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, origin)
			}
		}
	}

	if v := os.Getenv("ROOM_IDLE_TTL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			config.RoomIdleTTL = time.Duration(n) * time.Minute
		}
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}
