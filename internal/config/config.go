package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env             string
	Port            string
	DatabaseURL     string
	RedisURL        string
	AdminAddress    string // global administrator address (0x...), role bootstrap is external
	HealthAdminKey  string
	FrontendSuffix  string // allowed CORS origin suffix
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = viper.GetString("DATABASE_URL")
	}

	return &Config{
		Env:            env,
		Port:           port,
		DatabaseURL:    dbURL,
		RedisURL:       viper.GetString("REDIS_URL"),
		AdminAddress:   strings.ToLower(viper.GetString("ADMIN_ADDRESS")),
		HealthAdminKey: viper.GetString("HEALTH_ADMIN_KEY"),
		FrontendSuffix: viper.GetString("FRONTEND_URL_ENDS_WITH"),
	}, nil
}
