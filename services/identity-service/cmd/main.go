package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"google.golang.org/grpc"

	"github.com/natthaphols/identity-api/services/identity-service/internal/config"
	"github.com/natthaphols/identity-api/services/identity-service/internal/handler"
	"github.com/natthaphols/identity-api/services/identity-service/internal/repository"
	"github.com/natthaphols/identity-api/services/identity-service/internal/usecase"
	"github.com/natthaphols/identity-api/shared/auth"
	"github.com/natthaphols/identity-api/shared/mailer"
	"github.com/natthaphols/identity-api/shared/provider"
	"github.com/natthaphols/identity-api/shared/utilities"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config.New(&logger)

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := client.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)
	oauthRepo := repository.NewOAuthAccountMongoRepository(ctx, &logger, db)
	refreshTokenRepo := repository.NewRefreshTokenMongoRepository(ctx, &logger, db)
	emailTokenRepo := repository.NewEmailVerificationTokenMongoRepository(ctx, &logger, db)

	codec := auth.NewTokenCodec(cfg.Token.Secret)
	google := provider.NewGoogleOAuthProvider(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURL,
	)
	mail := mailer.NewMailer(&logger)

	authUsecase := usecase.NewAuthUsecase(userRepo, refreshTokenRepo, codec, cfg)
	userUsecase := usecase.NewUserUsecase(userRepo, oauthRepo, refreshTokenRepo, emailTokenRepo, mail, cfg)
	twoFactorUsecase := usecase.NewTwoFactorUsecase(userRepo, cfg)
	oauthUsecase := usecase.NewOAuthUsecase(userRepo, oauthRepo, google, authUsecase)

	go serveGRPCHealth(&logger, cfg.GRPCPort)

	if cfg.Consul.Addr != "" {
		err := utilities.RegisterWithConsul(
			cfg.Consul.Addr,
			cfg.ServiceName,
			cfg.ServiceName,
			cfg.Consul.AdvertiseAddr,
			cfg.GRPCPort,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to register with consul")
		}

		logger.Info().Str("addr", cfg.Consul.Addr).Msg("registered with consul")
	}

	h := handler.New(authUsecase, userUsecase, twoFactorUsecase, oauthUsecase, &logger)

	router := chi.NewRouter()
	router.Mount("/api/v1", h.Routes())

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("identity service listening")

	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		logger.Fatal().Err(err).Msg("http server stopped")
	}
}

// serveGRPCHealth runs a gRPC server that only answers health checks, which
// Consul polls to keep the service in its catalog.
func serveGRPCHealth(logger *zerolog.Logger, port int) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to listen for grpc health checks")
	}

	grpcServer := grpc.NewServer()
	utilities.RegisterHealthServer(grpcServer)

	if err := grpcServer.Serve(listener); err != nil {
		logger.Fatal().Err(err).Msg("grpc health server stopped")
	}
}
