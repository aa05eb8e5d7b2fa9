// Package secrets resolves credentials from the environment first and the OS
// keychain second, so nothing sensitive has to live in the yaml config.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"leadsniper-engine/internal/errkind"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "leadsniper"

const (
	EnvRedditClientID     = "REDDIT_CLIENT_ID"
	EnvRedditClientSecret = "REDDIT_CLIENT_SECRET"
	EnvOpenAIKey          = "OPENAI_API_KEY"
	EnvDiscordWebhookURL  = "DISCORD_WEBHOOK_URL"
)

// Lookup returns the secret named like its env var, env first, keychain
// account of the same name as fallback. Empty string means not found.
func Lookup(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if v, err := keyring.Get(KeyringService, name); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// Store writes a secret to the OS keychain.
func Store(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("secret name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, name, value)
}

type Credentials struct {
	RedditClientID     string
	RedditClientSecret string
	OpenAIKey          string
	DiscordWebhookURL  string
}

func LoadCredentials() Credentials {
	return Credentials{
		RedditClientID:     Lookup(EnvRedditClientID),
		RedditClientSecret: Lookup(EnvRedditClientSecret),
		OpenAIKey:          Lookup(EnvOpenAIKey),
		DiscordWebhookURL:  Lookup(EnvDiscordWebhookURL),
	}
}

// Validate reports missing required credentials as a fatal error so startup
// aborts with a clear diagnostic instead of failing mid-pipeline.
func (c Credentials) Validate(redditEnabled bool) error {
	var missing []string
	if redditEnabled && c.RedditClientID == "" {
		missing = append(missing, EnvRedditClientID)
	}
	if redditEnabled && c.RedditClientSecret == "" {
		missing = append(missing, EnvRedditClientSecret)
	}
	if c.OpenAIKey == "" {
		missing = append(missing, EnvOpenAIKey)
	}
	if c.DiscordWebhookURL == "" {
		missing = append(missing, EnvDiscordWebhookURL)
	}
	if len(missing) > 0 {
		return errkind.Errorf(errkind.Fatal, "missing required credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}
