// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/payroll"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Schedule ScheduleConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Path string
}

// ScheduleConfig seeds the engine and new workbooks.
type ScheduleConfig struct {
	Days     []payroll.Day
	Saturday payroll.Day
	Weeks    int
	Rates    payroll.RateTable
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}

	config.Database = DatabaseConfig{
		Path: getEnv("DB_PATH", "shiftpay.db"),
	}

	weeks, err := strconv.Atoi(getEnv("NUMBER_OF_WEEKS", strconv.Itoa(payroll.DefaultWeeks)))
	if err != nil {
		return nil, fmt.Errorf("invalid NUMBER_OF_WEEKS: %w", err)
	}

	rates := payroll.RateTable{}
	for _, r := range []struct {
		env      string
		fallback string
		dst      *decimal.Decimal
	}{
		{"DEFAULT_RATE_A", "25", &rates.A},
		{"DEFAULT_RATE_B", "7", &rates.B},
		{"DEFAULT_RATE_C", "2", &rates.C},
	} {
		v, err := decimal.NewFromString(getEnv(r.env, r.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", r.env, err)
		}
		*r.dst = v
	}

	var days []payroll.Day
	for _, d := range getEnvSlice("SCHEDULE_DAYS", "Mon,Tue,Wed,Thu,Fri,Sat") {
		days = append(days, payroll.Day(d))
	}

	config.Schedule = ScheduleConfig{
		Days:     days,
		Saturday: payroll.Day(getEnv("SATURDAY_DAY", string(payroll.DefaultSaturday))),
		Weeks:    weeks,
		Rates:    rates,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.App.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if len(c.Schedule.Days) == 0 {
		return fmt.Errorf("SCHEDULE_DAYS is required")
	}
	seen := map[payroll.Day]bool{}
	for _, d := range c.Schedule.Days {
		if seen[d] {
			return fmt.Errorf("SCHEDULE_DAYS lists %s twice", d)
		}
		seen[d] = true
	}
	if c.Schedule.Saturday != "" && !seen[c.Schedule.Saturday] {
		return fmt.Errorf("SATURDAY_DAY %q is not in SCHEDULE_DAYS", c.Schedule.Saturday)
	}
	if c.Schedule.Weeks <= 0 {
		return fmt.Errorf("NUMBER_OF_WEEKS must be positive")
	}
	return nil
}

// Defaults returns the seed configuration for workbooks.
func (c *Config) Defaults() payroll.Defaults {
	return payroll.Defaults{
		Days:  c.Schedule.Days,
		Weeks: c.Schedule.Weeks,
		Rates: c.Schedule.Rates,
	}
}

// Engine returns a payment engine for the configured days.
func (c *Config) Engine() *payroll.Engine {
	return payroll.NewEngine(c.Schedule.Days, c.Schedule.Saturday)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
