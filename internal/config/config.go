package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"

	log "github.com/sirupsen/logrus" // fatal errors on missing configuration
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Provider credentials are optional: an adapter
// without credentials serves mock availability.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	LogLevel      string // logrus level name
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign admin and voucher tokens
	AdminTTLMin   int    // admin token time‑to‑live in minutes
	AdminEmail    string // the single back-office account
	AdminPassHash string // bcrypt hash of the admin password
	PublicBaseURL string // used for voucher and checkout URLs
	RabbitMQURL   string // empty disables confirmation emails

	HoldTTL            time.Duration // how long a hold blocks a slot
	HoldSweepInterval  time.Duration // how often due holds are expired
	HoldRetention      time.Duration // how long terminal holds are kept
	PriceTTL           time.Duration // lifetime of a cached price
	PriceSweepInterval time.Duration // how often expired prices are removed

	Golfmanager GolfmanagerConfig
	TeeOne      CredentialsConfig
	Zest        CredentialsConfig
}

// GolfmanagerConfig configures the Golfmanager adapter.
type GolfmanagerConfig struct {
	BaseURL         string
	APIKey          string
	DefaultKickback float64 // percent applied over wholesale when no contract rate matches
}

// CredentialsConfig configures a username/password provider.
type CredentialsConfig struct {
	BaseURL  string
	Username string
	Password string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),                   // environment (dev/test/prod)
		Port:          must("APP_PORT"),                  // port to bind the HTTP server
		LogLevel:      envStr("LOG_LEVEL", "info"),
		DBUser:        must("DB_USER"),                   // database user
		DBPass:        os.Getenv("DB_PASS"),              // database password (empty allowed)
		DBHost:        must("DB_HOST"),                   // database host
		DBPort:        must("DB_PORT"),                   // database port
		DBName:        must("DB_NAME"),                   // database name
		JWTSecret:     must("JWT_SECRET"),                // secret used for signing JWTs
		AdminTTLMin:   envInt("ADMIN_TOKEN_TTL_MIN", 60), // admin session length
		AdminEmail:    envStr("ADMIN_EMAIL", ""),
		AdminPassHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		PublicBaseURL: envStr("PUBLIC_BASE_URL", "http://localhost:8080"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),

		HoldTTL:            envDur("HOLD_TTL", 15*time.Minute),
		HoldSweepInterval:  envDur("HOLD_SWEEP_INTERVAL", 5*time.Minute),
		HoldRetention:      envDur("HOLD_RETENTION", 24*time.Hour),
		PriceTTL:           envDur("PRICE_CACHE_TTL", 30*time.Minute),
		PriceSweepInterval: envDur("PRICE_CACHE_SWEEP_INTERVAL", 10*time.Minute),

		Golfmanager: GolfmanagerConfig{
			BaseURL:         os.Getenv("GOLFMANAGER_BASE_URL"),
			APIKey:          os.Getenv("GOLFMANAGER_API_KEY"),
			DefaultKickback: envFloat("DEFAULT_KICKBACK_PERCENT", 20),
		},
		TeeOne: CredentialsConfig{
			BaseURL:  os.Getenv("TEEONE_BASE_URL"),
			Username: os.Getenv("TEEONE_USERNAME"),
			Password: os.Getenv("TEEONE_PASSWORD"),
		},
		Zest: CredentialsConfig{
			BaseURL:  os.Getenv("ZEST_BASE_URL"),
			Username: os.Getenv("ZEST_USERNAME"),
			Password: os.Getenv("ZEST_PASSWORD"),
		},
	}
}

// IsDev reports whether the service runs in a developer environment.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "local"
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envFloat(k string, d float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid number for %s: %q", k, v)
	}
	return f
}
