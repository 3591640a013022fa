// Package config loads the process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the configuration surface of the orchestrator. The wallet
// address URL, key id and private key identify this party with the payment
// network; they feed the network client, not the core logic.
type Config struct {
	WalletAddressURL string        `env:"OPENPAY_WALLET_ADDRESS_URL,required"`
	KeyID            string        `env:"OPENPAY_KEY_ID,required"`
	PrivateKeyPath   string        `env:"OPENPAY_PRIVATE_KEY_PATH,default=private.key"`
	Port             int           `env:"OPENPAY_PORT,default=3000"`
	AllowedOrigin    string        `env:"OPENPAY_ALLOWED_ORIGIN,default=http://localhost:5175"`
	LogLevel         string        `env:"OPENPAY_LOG_LEVEL,default=info"`
	RequestTimeout   time.Duration `env:"OPENPAY_REQUEST_TIMEOUT,default=30s"`
}

// Load reads .env when present, then decodes the environment. A missing
// .env file is not an error; missing required variables are.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	return &cfg, nil
}
