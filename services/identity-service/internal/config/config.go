package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// IdentityServiceConfig holds the process-wide configuration for the
// identity service. It is loaded once at startup and never mutated.
type IdentityServiceConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"identity-service"`
	HTTPAddr    string `env:"HTTP_ADDR"    envDefault:":8080"`
	GRPCPort    int    `env:"GRPC_PORT"    envDefault:"9090"`
	AppBaseURL  string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	Mongo  MongoConfig
	Token  TokenConfig
	TOTP   TOTPConfig
	Google GoogleConfig
	Consul ConsulConfig
}

// MongoConfig holds the database connection settings.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE" envDefault:"identity"`
}

// TokenConfig holds the signing secret and token lifetimes.
type TokenConfig struct {
	Secret                     string        `env:"TOKEN_SECRET"`
	AccessTokenExpiresIn       time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"       envDefault:"30m"`
	RefreshTokenExpiresIn      time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN"      envDefault:"168h"`
	VerificationTokenExpiresIn time.Duration `env:"VERIFICATION_TOKEN_EXPIRES_IN" envDefault:"24h"`
}

// TOTPConfig holds second-factor settings.
type TOTPConfig struct {
	Issuer      string `env:"TOTP_ISSUER"       envDefault:"identity-api"`
	DriftWindow int    `env:"TOTP_DRIFT_WINDOW" envDefault:"1"`
}

// GoogleConfig holds the OAuth application credentials.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

// ConsulConfig holds service-registration settings. Registration is
// skipped when Addr is empty.
type ConsulConfig struct {
	Addr          string `env:"CONSUL_ADDR"`
	AdvertiseAddr string `env:"CONSUL_ADVERTISE_ADDR" envDefault:"127.0.0.1"`
}

// New parses the configuration from environment variables.
func New(logger *zerolog.Logger) *IdentityServiceConfig {
	cfg, err := env.ParseAs[IdentityServiceConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

func (c *IdentityServiceConfig) validate() error {
	if c.Token.Secret == "" {
		return fmt.Errorf("missing TOKEN_SECRET environment variable")
	}

	return nil
}
