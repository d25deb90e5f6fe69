package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"planets-engine/internal/shared/utils"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	OAuth      OAuthConfig
	Frontend   FrontendConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	Simulation SimulationConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	URL          string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (s ServerConfig) Production() bool { return s.Environment == "production" }

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// MigrationsPath overrides the migrations compiled into the binary.
	MigrationsPath string
}

// DSN is the lib/pq connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig backs the summary cache and OAuth states. URL wins over
// host and port when both are set.
type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
	CookieSecure    bool
	CookieSameSite  string
}

// ProviderConfig holds one OAuth application's credentials.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type OAuthConfig struct {
	Google  ProviderConfig
	GitHub  ProviderConfig
	Discord ProviderConfig
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

// RateLimitConfig throttles session commands per player.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// SimulationConfig drives the live session host. An empty CatalogPath
// selects the built-in rules.
type SimulationConfig struct {
	CatalogPath        string
	DriverInterval     time.Duration
	SnapshotEveryTicks int
	MaxLiveSessions    int
	MaxSessionsPerUser int
	SummaryTTL         time.Duration

	// MaxTicksPerFrame caps one session's catch-up per driver frame.
	MaxTicksPerFrame int
	MaxSystems       int
}

// AdminConfig names the account promoted to admin on first sign-in.
type AdminConfig struct {
	Email       string
	Username    string
	DisplayName string
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	env := utils.GetEnv("ENVIRONMENT", "development")
	serverURL := utils.GetEnv("SERVER_URL", "http://localhost:8080")

	return &Config{
		Server: ServerConfig{
			Port:         utils.GetEnv("SERVER_PORT", "8080"),
			URL:          serverURL,
			Environment:  env,
			ReadTimeout:  seconds("SERVER_READ_TIMEOUT_SECONDS", 15),
			WriteTimeout: seconds("SERVER_WRITE_TIMEOUT_SECONDS", 15),
			IdleTimeout:  seconds("SERVER_IDLE_TIMEOUT_SECONDS", 60),
		},
		Database: DatabaseConfig{
			Host:            utils.GetEnv("DB_HOST", "localhost"),
			Port:            utils.GetEnv("DB_PORT", "5432"),
			User:            utils.GetEnv("DB_USER", "postgres"),
			Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
			Name:            utils.GetEnv("DB_NAME", "planets"),
			SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    utils.GetEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    utils.GetEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(utils.GetEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", ""),
		},
		Redis: RedisConfig{
			Enabled:  utils.GetEnvBool("REDIS_ENABLED", true),
			URL:      utils.GetEnv("REDIS_URL", ""),
			Host:     utils.GetEnv("REDIS_HOST", "localhost"),
			Port:     utils.GetEnv("REDIS_PORT", "6379"),
			Password: utils.GetEnv("REDIS_PASSWORD", ""),
			DB:       utils.GetEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:       utils.GetEnv("JWT_SECRET", ""),
			TokenExpiration: time.Duration(utils.GetEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
			CookieSecure:    env == "production",
			CookieSameSite:  utils.GetEnv("COOKIE_SAME_SITE", "lax"),
		},
		OAuth: OAuthConfig{
			Google:  provider("GOOGLE", serverURL+"/auth/google/callback", "openid", "profile", "email"),
			GitHub:  provider("GITHUB", serverURL+"/auth/github/callback", "user:email"),
			Discord: provider("DISCORD", serverURL+"/auth/discord/callback", "identify", "email"),
		},
		Frontend: FrontendConfig{
			URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
			CORSDebug: utils.GetEnvBool("CORS_DEBUG", false),
		},
		Logging: LoggingConfig{
			Level:      utils.GetEnv("LOG_LEVEL", "debug"),
			Format:     utils.GetEnv("LOG_FORMAT", "text"),
			JSONFormat: env == "production",
		},
		RateLimit: RateLimitConfig{
			Enabled:           utils.GetEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: utils.GetEnvFloat("RATE_LIMIT_REQUESTS_PER_SECOND", 10),
			BurstSize:         utils.GetEnvInt("RATE_LIMIT_BURST_SIZE", 20),
		},
		Simulation: SimulationConfig{
			CatalogPath:        utils.GetEnv("SIM_CATALOG_PATH", ""),
			DriverInterval:     time.Duration(utils.GetEnvInt("SIM_DRIVER_INTERVAL_MS", 250)) * time.Millisecond,
			SnapshotEveryTicks: utils.GetEnvInt("SIM_SNAPSHOT_EVERY_TICKS", 30),
			MaxLiveSessions:    utils.GetEnvInt("SIM_MAX_LIVE_SESSIONS", 256),
			MaxSessionsPerUser: utils.GetEnvInt("SIM_MAX_SESSIONS_PER_PLAYER", 5),
			SummaryTTL:         seconds("SIM_SUMMARY_TTL_SECONDS", 30),
			MaxTicksPerFrame:   utils.GetEnvInt("SIM_MAX_TICKS_PER_FRAME", 600),
			MaxSystems:         utils.GetEnvInt("SIM_MAX_SYSTEMS", 512),
		},
		Admin: AdminConfig{
			Email:       utils.GetEnv("ADMIN_EMAIL", "admin@localhost"),
			Username:    utils.GetEnv("ADMIN_USERNAME", "admin"),
			DisplayName: utils.GetEnv("ADMIN_DISPLAY_NAME", "Admin"),
		},
	}, nil
}

func seconds(key string, def int) time.Duration {
	return time.Duration(utils.GetEnvInt(key, def)) * time.Second
}

// provider reads <PREFIX>_CLIENT_ID and <PREFIX>_CLIENT_SECRET.
func provider(prefix, redirectURL string, scopes ...string) ProviderConfig {
	return ProviderConfig{
		ClientID:     utils.GetEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: utils.GetEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}

func (c *Config) validate() error {
	var errs []error
	required := map[string]string{
		"SERVER_PORT": c.Server.Port,
		"SERVER_URL":  c.Server.URL,
		"DB_HOST":     c.Database.Host,
		"DB_NAME":     c.Database.Name,
		"JWT_SECRET":  c.Auth.JWTSecret,
	}
	for key, value := range required {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters long"))
	}
	if c.Simulation.DriverInterval <= 0 {
		errs = append(errs, errors.New("SIM_DRIVER_INTERVAL_MS must be positive"))
	}
	if c.Simulation.MaxLiveSessions <= 0 {
		errs = append(errs, errors.New("SIM_MAX_LIVE_SESSIONS must be positive"))
	}
	if c.Simulation.SnapshotEveryTicks <= 0 {
		errs = append(errs, errors.New("SIM_SNAPSHOT_EVERY_TICKS must be positive"))
	}
	if c.Simulation.MaxTicksPerFrame <= 0 {
		errs = append(errs, errors.New("SIM_MAX_TICKS_PER_FRAME must be positive"))
	}
	if c.Simulation.MaxSystems <= 0 {
		errs = append(errs, errors.New("SIM_MAX_SYSTEMS must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		errs = append(errs, errors.New("rate limit needs positive RATE_LIMIT_REQUESTS_PER_SECOND and RATE_LIMIT_BURST_SIZE"))
	}

	return errors.Join(errs...)
}
