package gatekey

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the authentication core needs from the
// environment. The signing secret is shared between the token issuer and the
// OAuth state guard; that reuse is deliberate.
type Config struct {
	SecretKey string `env:"SECRET_KEY"`
	Issuer    string `env:"TOKEN_ISSUER" envDefault:"gatekey"`

	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`

	OTPLength int           `env:"OTP_LENGTH" envDefault:"6"`
	OTPTTL    time.Duration `env:"OTP_TTL" envDefault:"120s"`

	OAuthStateTTL time.Duration `env:"OAUTH_STATE_TTL" envDefault:"600s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI"`

	GithubClientID     string `env:"GITHUB_CLIENT_ID"`
	GithubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GithubRedirectURI  string `env:"GITHUB_REDIRECT_URI"`
}

// LoadConfig parses configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the core cannot run without. Provider
// credentials are optional; an unconfigured provider simply rejects
// authorization requests.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("missing SECRET_KEY environment variable")
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.OTPLength)
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}
