package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	BotToken       string `validate:"required"`
	PublicKeyHex   string `validate:"required,hexadecimal,len=64"`
	ReviewChannel  string `validate:"required"`
	ReviewerUserID string `validate:"required"`
	ServerAddr     string `validate:"required"`
	UploadDir      string `validate:"required"`

	// PublicKey is decoded from PublicKeyHex at load time so the webhook
	// handler never parses hex per request.
	PublicKey ed25519.PublicKey `validate:"-"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:       os.Getenv("DISCORD_BOT_TOKEN"),
		PublicKeyHex:   os.Getenv("DISCORD_PUBLIC_KEY"),
		ReviewChannel:  os.Getenv("REVIEW_CHANNEL_ID"),
		ReviewerUserID: os.Getenv("REVIEWER_USER_ID"),
		ServerAddr:     getenv("SERVER_ADDR", "0.0.0.0:10000"),
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	key, err := hex.DecodeString(cfg.PublicKeyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("config: DISCORD_PUBLIC_KEY is not a %d-byte hex key", ed25519.PublicKeySize)
	}
	cfg.PublicKey = ed25519.PublicKey(key)

	return cfg, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}
