package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env               string
	Port              string
	DatabaseURL       string
	RedisURL          string
	SessionSecret     string
	MobileTokenSecret string
	AllowCrossSiteDev bool
	FrontendURLSuffix string
	DevPassword       string
}

// Load loads config from env and an optional .env file.
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

	// The mobile token secret falls back to the session secret so a minimal
	// deployment only has to set one.
	tokenSecret := viper.GetString("MOBILE_TOKEN_SECRET")
	if tokenSecret == "" {
		tokenSecret = viper.GetString("SESSION_SECRET")
	}

	return &Config{
		Env:               env,
		Port:              port,
		DatabaseURL:       viper.GetString("DATABASE_URL"),
		RedisURL:          viper.GetString("REDIS_URL"),
		SessionSecret:     viper.GetString("SESSION_SECRET"),
		MobileTokenSecret: tokenSecret,
		AllowCrossSiteDev: strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		FrontendURLSuffix: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:       viper.GetString("DEV_PASSWORD"),
	}, nil
}
