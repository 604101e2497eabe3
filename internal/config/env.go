package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names for the secrets.
const (
	EnvBotToken = "TELEGRAM_BOT_TOKEN"
	EnvChatID   = "TELEGRAM_CHAT_ID"
)

// Secrets are the credential and destination, loaded from the environment
// only. They are fixed for the process lifetime; changing them requires a
// restart.
type Secrets struct {
	Token  string
	ChatID int64
}

// LoadSecrets reads the secrets from the environment, loading a .env file
// first when present. Missing or malformed values fail fast.
func LoadSecrets() (Secrets, error) {
	// Same behavior as the usual dotenv setup: real env wins over .env.
	_ = godotenv.Load()

	token := strings.TrimSpace(os.Getenv(EnvBotToken))
	if token == "" {
		return Secrets{}, &ConfigError{Field: EnvBotToken, Err: errors.New("not set")}
	}

	rawChat := strings.TrimSpace(os.Getenv(EnvChatID))
	if rawChat == "" {
		return Secrets{}, &ConfigError{Field: EnvChatID, Err: errors.New("not set")}
	}
	chatID, err := strconv.ParseInt(rawChat, 10, 64)
	if err != nil {
		return Secrets{}, &ConfigError{Field: EnvChatID, Err: fmt.Errorf("not a chat id: %q", rawChat)}
	}

	return Secrets{Token: token, ChatID: chatID}, nil
}
