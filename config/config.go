package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Server struct {
		Port       string `mapstructure:"port"`
		CORSOrigin string `mapstructure:"cors_origin"`
	} `mapstructure:"server"`
	JWT struct {
		AccessSecret   string `mapstructure:"access_secret"`
		RefreshSecret  string `mapstructure:"refresh_secret"`
		AccessTTLMins  int    `mapstructure:"access_ttl_minutes"`
		RefreshTTLDays int    `mapstructure:"refresh_ttl_days"`
	} `mapstructure:"jwt"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	S3 struct {
		Endpoint      string `mapstructure:"endpoint"`
		Region        string `mapstructure:"region"`
		AccessKey     string `mapstructure:"access_key"`
		SecretKey     string `mapstructure:"secret_key"`
		Bucket        string `mapstructure:"bucket"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	} `mapstructure:"s3"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	// A missing database section is a boot failure, not something to limp past.
	if AppConfig.Database.Host == "" || AppConfig.Database.Name == "" {
		log.Fatal("database configuration is required")
	}
}
