package config

import (
	"log"

	"github.com/spf13/viper"

	"hanabook/models"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EventConfig describes the single bookable day.
type EventConfig struct {
	Date      string `mapstructure:"date"`       // YYYY-MM-DD
	StartTime string `mapstructure:"start_time"` // HH:MM
	EndTime   string `mapstructure:"end_time"`   // HH:MM
	Timezone  string `mapstructure:"timezone"`
	Location  string `mapstructure:"location"`
}

// BookingConfig holds slot parameters.
type BookingConfig struct {
	SlotDurationMinutes int `mapstructure:"slot_duration"`
}

// RecoverySlot is a wall-clock time that is never bookable.
type RecoverySlot struct {
	Time string `mapstructure:"time"` // HH:MM
}

// RateLimitConfig controls the per-client request throttle.
type RateLimitConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Backend              string `mapstructure:"backend"` // "memory" or "redis"
	MaxRequestsPerMinute int    `mapstructure:"max_requests_per_minute"`
	MaxRequestsPerHour   int    `mapstructure:"max_requests_per_hour"`
	FailOpen             bool   `mapstructure:"fail_open"`
	IdleEvictionSchedule string `mapstructure:"idle_eviction_schedule"`
}

// RedisConfig holds connection settings for the shared limiter backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GoogleConfig holds Calendar API credentials and call limits.
type GoogleConfig struct {
	CredentialsFile string   `mapstructure:"credentials_file"`
	TokenFile       string   `mapstructure:"token_file"`
	Scopes          []string `mapstructure:"scopes"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`
}

// AdminConfig guards the administrative endpoints.
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Config holds all configuration values.
type Config struct {
	Env           string          `mapstructure:"env"`
	Server        ServerConfig    `mapstructure:"server"`
	CORS          CORSConfig      `mapstructure:"cors"`
	Event         EventConfig     `mapstructure:"event"`
	Booking       BookingConfig   `mapstructure:"booking"`
	RecoverySlots []RecoverySlot  `mapstructure:"recovery_slots"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
	Redis         RedisConfig     `mapstructure:"redis"`
	Google        GoogleConfig    `mapstructure:"google"`
	Admin         AdminConfig     `mapstructure:"admin"`
	Staff         []models.Staff  `mapstructure:"staff"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("env", "development")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("event.timezone", "Asia/Tokyo")
	viper.SetDefault("booking.slot_duration", 15)
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.backend", "memory")
	viper.SetDefault("rate_limit.max_requests_per_minute", 10)
	viper.SetDefault("rate_limit.max_requests_per_hour", 60)
	viper.SetDefault("rate_limit.fail_open", false)
	viper.SetDefault("rate_limit.idle_eviction_schedule", "@every 10m")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("google.credentials_file", "credentials.json")
	viper.SetDefault("google.token_file", "token.json")
	viper.SetDefault("google.scopes", []string{"https://www.googleapis.com/auth/calendar"})
	viper.SetDefault("google.timeout_seconds", 10)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// StaffByID returns the configured staff member with the given id, or nil.
func (c *Config) StaffByID(id string) *models.Staff {
	for i := range c.Staff {
		if c.Staff[i].ID == id {
			return &c.Staff[i]
		}
	}
	return nil
}

// RecoveryTimes returns the configured recovery times as "HH:MM" strings.
func (c *Config) RecoveryTimes() []string {
	times := make([]string, 0, len(c.RecoverySlots))
	for _, s := range c.RecoverySlots {
		times = append(times, s.Time)
	}
	return times
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
