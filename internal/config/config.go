package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/hotel-quote-bot/internal/pricing"
	"github.com/wolfman30/hotel-quote-bot/internal/quotepdf"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Evolution relay
	EvolutionAPIBase string
	EvolutionAPIKey  string
	WebhookToken     string
	AuthorizedNumber string

	// Reply cycle and admission timing
	ComposingDuration time.Duration
	StaleMessageAfter time.Duration
	GroupingWindow    time.Duration
	CloseGraceWindow  time.Duration
	ConversationTTL   time.Duration
	ProcessedCacheMax int
	DocumentDelay     time.Duration
	Timezone          string
	RoomRatesJSON     string
	// Per-IP requests/second on /webhook. Zero disables the limiter: every
	// relay delivery arrives from the same address.
	WebhookRateLimit  float64
	WebhookRateBurst  int

	// Hotel identity printed on quotations
	HotelName        string
	HotelAddress     string
	HotelPhone       string
	HotelEmail       string
	HotelTaxID       string
	HotelBank        string
	HotelBankAccount string

	// Optional shared processed-id cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		EvolutionAPIBase: strings.TrimRight(getEnv("EVOLUTION_API_BASE", ""), "/"),
		EvolutionAPIKey:  getEnv("EVOLUTION_API_KEY", ""),
		WebhookToken:     getEnv("WEBHOOK_TOKEN", ""),
		AuthorizedNumber: getEnv("AUTHORIZED_NUMBER", ""),

		ComposingDuration: getEnvAsDuration("COMPOSING_DURATION", 3*time.Second),
		StaleMessageAfter: getEnvAsDuration("STALE_MESSAGE_AFTER", 60*time.Second),
		GroupingWindow:    getEnvAsDuration("GROUPING_WINDOW", 1*time.Second),
		CloseGraceWindow:  getEnvAsDuration("CLOSE_GRACE_WINDOW", 5*time.Second),
		ConversationTTL:   getEnvAsDuration("CONVERSATION_TTL", time.Hour),
		ProcessedCacheMax: getEnvAsInt("PROCESSED_CACHE_MAX", 1000),
		DocumentDelay:     getEnvAsDuration("DOCUMENT_DELAY", 1*time.Second),
		Timezone:          getEnv("TIMEZONE", "America/Santiago"),
		RoomRatesJSON:     getEnv("ROOM_RATES_JSON", ""),
		WebhookRateLimit:  getEnvAsFloat("WEBHOOK_RATE_LIMIT", 0),
		WebhookRateBurst:  getEnvAsInt("WEBHOOK_RATE_BURST", 50),

		HotelName:        getEnv("HOTEL_NAME", "Hotel"),
		HotelAddress:     getEnv("HOTEL_ADDRESS", ""),
		HotelPhone:       getEnv("HOTEL_PHONE", ""),
		HotelEmail:       getEnv("HOTEL_EMAIL", ""),
		HotelTaxID:       getEnv("HOTEL_TAX_ID", ""),
		HotelBank:        getEnv("HOTEL_BANK", "Banco de Chile"),
		HotelBankAccount: getEnv("HOTEL_BANK_ACCOUNT", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.WebhookToken == "" {
		errs = append(errs, errors.New("WEBHOOK_TOKEN is required"))
	}
	if c.EvolutionAPIBase == "" {
		errs = append(errs, errors.New("EVOLUTION_API_BASE is required"))
	}
	if normalizedDigits(c.AuthorizedNumber) == "" {
		errs = append(errs, errors.New("AUTHORIZED_NUMBER is required"))
	}
	if c.EvolutionAPIKey == "" {
		errs = append(errs, errors.New("EVOLUTION_API_KEY is required"))
	}
	if _, err := c.Rates(); err != nil {
		errs = append(errs, fmt.Errorf("ROOM_RATES_JSON: %w", err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Rates returns the nightly rate table, falling back to the published
// rates when ROOM_RATES_JSON is unset.
func (c *Config) Rates() (pricing.RateTable, error) {
	if strings.TrimSpace(c.RoomRatesJSON) == "" {
		return pricing.DefaultRates(), nil
	}
	return pricing.ParseRateTable(c.RoomRatesJSON)
}

// Location resolves Timezone, used to interpret relative dates.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Hotel returns the issuer identity for rendered quotations.
func (c *Config) Hotel() quotepdf.Hotel {
	return quotepdf.Hotel{
		Name:        c.HotelName,
		Address:     c.HotelAddress,
		Phone:       c.HotelPhone,
		Email:       c.HotelEmail,
		TaxID:       c.HotelTaxID,
		Bank:        c.HotelBank,
		BankAccount: c.HotelBankAccount,
	}
}

func normalizedDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("1500ms") or whole seconds ("3").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
