package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	Database Database
	Redis    Redis

	Stripe Stripe `envPrefix:"STRIPE_"`
	AI     AI
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"` // mysql, sqlite
	URL    string `env:"DATABASE_URL" envDefault:"bloomy.db"`
}

type Redis struct {
	URL          string        `env:"REDIS_URL"` // empty disables the gift cache
	GiftCacheTTL time.Duration `env:"GIFT_CACHE_TTL" envDefault:"5m"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Price30D      string `env:"PRICE_30D"`
	Price365D     string `env:"PRICE_365D"`
}

// PriceIDs maps plan keys to Stripe price ids. Plans without a configured
// price are omitted.
func (s Stripe) PriceIDs() map[string]string {
	prices := make(map[string]string, 2)
	if s.Price30D != "" {
		prices["30d"] = s.Price30D
	}
	if s.Price365D != "" {
		prices["365d"] = s.Price365D
	}
	return prices
}

type AI struct {
	Provider  string        `env:"AI_PROVIDER"` // openai, anthropic, anything else uses templates
	Timeout   time.Duration `env:"AI_TIMEOUT" envDefault:"15s"`
	OpenAI    OpenAI        `envPrefix:"OPENAI_"`
	Anthropic Anthropic     `envPrefix:"ANTHROPIC_"`
}

type OpenAI struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-3.5-turbo"`
	BaseURL string `env:"BASE_URL" envDefault:"https://api.openai.com"`
}

type Anthropic struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"claude-3-haiku-20240307"`
	BaseURL string `env:"BASE_URL" envDefault:"https://api.anthropic.com"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
