package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config regroupe toute la configuration du serveur, lue depuis l'environnement.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	ScyllaHosts    string `envconfig:"SCYLLA_HOSTS" default:"localhost:9042"`
	ScyllaKeyspace string `envconfig:"SCYLLA_KEYSPACE" default:"storefront"`
	ScyllaUsername string `envconfig:"SCYLLA_USERNAME"`
	ScyllaPassword string `envconfig:"SCYLLA_PASSWORD"`

	ElasticURL      string `envconfig:"ELASTIC_URL"`
	ElasticUser     string `envconfig:"ELASTIC_USER"`
	ElasticPassword string `envconfig:"ELASTIC_PASSWORD"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"storefront-images"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinioPublicURL string `envconfig:"MINIO_PUBLIC_URL"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	PaymentCurrency string `envconfig:"PAYMENT_CURRENCY" default:"usd"`

	JWTSecret         string `envconfig:"JWT_SECRET"`
	AdminEmail        string `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
	SessionSecret     string `envconfig:"SESSION_SECRET"`

	GeoAPIURL       string        `envconfig:"GEO_API_URL" default:"https://ipapi.co"`
	DefaultCurrency string        `envconfig:"DEFAULT_CURRENCY" default:"USD"`
	CartIdleTTL     time.Duration `envconfig:"CART_IDLE_TTL" default:"2h"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"noreply@storefront.local"`

	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// Load charge le fichier .env s'il existe puis lit les variables d'environnement.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("lecture configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate vérifie les secrets sans lesquels le serveur ne peut pas démarrer.
func (c *Config) Validate() error {
	var missing []string
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("variables manquantes: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ScyllaHostList découpe SCYLLA_HOSTS.
func (c *Config) ScyllaHostList() []string {
	return splitList(c.ScyllaHosts)
}

// CORSOriginList découpe CORS_ORIGINS.
func (c *Config) CORSOriginList() []string {
	return splitList(c.CORSOrigins)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
