package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// PFRate is the provident fund contribution rate applied to the base
	// salary for both the employee and the employer share.
	PFRate decimal.Decimal

	// Sequence allocation retry policy under contention.
	SeqMaxRetries   int
	SeqRetryBackoff time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("PF_RATE", "0.05")
	viper.SetDefault("SEQ_MAX_RETRIES", 3)
	viper.SetDefault("SEQ_RETRY_BACKOFF", "25ms")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	pfRate, err := decimal.NewFromString(viper.GetString("PF_RATE"))
	if err != nil || pfRate.IsNegative() || pfRate.GreaterThan(decimal.NewFromInt(1)) {
		log.Printf("Warning: Invalid value for PF_RATE ('%s'). Defaulting to 0.05.\n", viper.GetString("PF_RATE"))
		pfRate = decimal.RequireFromString("0.05")
	}
	cfg.PFRate = pfRate

	cfg.SeqMaxRetries = viper.GetInt("SEQ_MAX_RETRIES")
	if cfg.SeqMaxRetries < 1 {
		cfg.SeqMaxRetries = 3
	}
	cfg.SeqRetryBackoff = viper.GetDuration("SEQ_RETRY_BACKOFF")
	if cfg.SeqRetryBackoff <= 0 {
		cfg.SeqRetryBackoff = 25 * time.Millisecond
	}

	return cfg, nil
}
