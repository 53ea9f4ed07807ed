package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	LogLevel    string `mapstructure:"log_level"`
	DatabaseURL string `mapstructure:"database_url"`
	ServiceName string `mapstructure:"service_name"`

	// JwtSecret signs access tokens; never ship the default.
	JwtSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`

	MaxLoginFailures int           `mapstructure:"max_login_failures"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`

	Consul ConsulConfig `mapstructure:"consul"`
}

var AppConfig Config

func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable overrides, e.g. BIZCORE_JWT_SECRET.
	viper.SetEnvPrefix("BIZCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("http_port", 8080)
	viper.SetDefault("grpc_port", 50051)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("database_url", "root:password@tcp(127.0.0.1:3306)/bizcore?charset=utf8mb4&parseTime=True&loc=Local")
	viper.SetDefault("service_name", "bizcore")
	viper.SetDefault("jwt_secret", "default-very-insecure-secret-key") // CHANGE THIS IN PRODUCTION
	viper.SetDefault("access_token_ttl", 15*time.Minute)
	viper.SetDefault("refresh_token_ttl", 7*24*time.Hour)
	viper.SetDefault("max_login_failures", 5)
	viper.SetDefault("lockout_duration", 15*time.Minute)
	viper.SetDefault("sweep_interval", time.Hour)
	viper.SetDefault("consul.enabled", false)
	viper.SetDefault("consul.address", "127.0.0.1:8500")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		panic(fmt.Errorf("unable to decode config into struct: %w", err))
	}
}
