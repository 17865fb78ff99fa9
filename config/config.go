package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contém as configurações da aplicação
type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	AllowedChats     []int64 `env:"TELEGRAM_ALLOWED_CHATS" envSeparator:","`

	// Horário da rotina diária; valores fora de 0-23/0-59 desativam a rotina
	UpdateHour   int `env:"UPDATE_HOUR" envDefault:"9"`
	UpdateMinute int `env:"UPDATE_MINUTE" envDefault:"0"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"file"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"./data"`

	ITADAPIKey  string `env:"ITAD_API_KEY"`
	ITADCountry string `env:"ITAD_COUNTRY" envDefault:"IT"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	HTTPRetries int           `env:"HTTP_RETRIES" envDefault:"2"`

	Workers     int    `env:"WORKERS" envDefault:"1"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load carrega as configurações das variáveis de ambiente
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("erro ao ler variáveis de ambiente: %w", err)
	}

	if cfg.StoragePath == "" {
		return nil, fmt.Errorf("STORAGE_PATH não configurado")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.HTTPRetries < 0 {
		cfg.HTTPRetries = 0
	}

	return cfg, nil
}

// DailyUpdateEnabled indica se o horário configurado é válido
func (c *Config) DailyUpdateEnabled() bool {
	return c.UpdateHour >= 0 && c.UpdateHour < 24 && c.UpdateMinute >= 0 && c.UpdateMinute < 60
}

// ChatAllowed indica se o chat pode usar o bot; sem lista configurada, todos podem
func (c *Config) ChatAllowed(chatID int64) bool {
	if len(c.AllowedChats) == 0 {
		return true
	}
	for _, id := range c.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}
