package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"codepool"`
}

// CatalogEntry is one row of the catalog registry table: a logical service
// name, the inventory document it maps to, and the unit price in cents.
type CatalogEntry struct {
	Service    string `yaml:"service"`
	DocumentId string `yaml:"document_id"`
	UnitPrice  int64  `yaml:"unit_price"`
}

type EngineConfig struct {
	MaxQuantity int `yaml:"max_quantity" env-default:"10"`
	RetryLimit  int `yaml:"retry_limit" env-default:"5"`
	RetryBaseMs int `yaml:"retry_base_ms" env-default:"25"`
	RetryMaxMs  int `yaml:"retry_max_ms" env-default:"500"`
}

type SmtpConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:""`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env-default:""`
	Password string `yaml:"password" env-default:""`
	From     string `yaml:"from" env-default:""`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	ApiKey  string `yaml:"api_key" env-default:""`
	ChatId  int64  `yaml:"chat_id" env-default:"0"`
}

type StripeConfig struct {
	Enabled           bool   `yaml:"enabled" env-default:"false"`
	APIKey            string `yaml:"api_key" env-default:""`
	WebhookSecret     string `yaml:"webhook_secret" env-default:""`
	TestMode          bool   `yaml:"test_mode" env-default:"false"`
	TestKey           string `yaml:"test_key" env-default:""`
	TestWebhookSecret string `yaml:"test_webhook_secret" env-default:""`
	Currency          string `yaml:"currency" env-default:"eur"`
}

// LegacyConfig points at the old storefront's MySQL database, used only to
// seed catalogs from its voucher table.
type LegacyConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	HostName string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:""`
	Prefix   string `yaml:"prefix" env-default:"oc_"`
}

type Config struct {
	Env      string         `yaml:"env" env-default:"local"`
	Listen   Listen         `yaml:"listen"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Engine   EngineConfig   `yaml:"engine"`
	Catalogs []CatalogEntry `yaml:"catalogs"`
	Smtp     SmtpConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Legacy   LegacyConfig   `yaml:"legacy"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
