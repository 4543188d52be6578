package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// GatewayCredentials holds provider credentials for the gateway strategies.
// Loaded once at startup and injected into each strategy at construction;
// never mutated during a request.
type GatewayCredentials struct {
	StripeSecretKey   string
	ChainVerifierURL  string
	ChainVerifierKey  string
	RemittanceAPIKeys map[string]string
	InitiateTimeout   time.Duration
}

// LoadGatewayCredentials reads provider credentials from the environment.
func LoadGatewayCredentials() GatewayCredentials {
	return GatewayCredentials{
		StripeSecretKey:  GetEnv("STRIPE_SECRET_KEY", ""),
		ChainVerifierURL: GetEnv("CHAIN_VERIFIER_URL", ""),
		ChainVerifierKey: GetEnv("CHAIN_VERIFIER_KEY", ""),
		RemittanceAPIKeys: map[string]string{
			"western_union": GetEnv("WESTERN_UNION_API_KEY", ""),
			"moneygram":     GetEnv("MONEYGRAM_API_KEY", ""),
			"bank_wire":     GetEnv("BANK_WIRE_API_KEY", ""),
		},
		InitiateTimeout: GetDurationEnv("GATEWAY_INITIATE_TIMEOUT", 15*time.Second),
	}
}
