// Package server boots bazaar: configuration, backends, the wired
// application and the HTTP (plus optional gRPC health) listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/controllers"
	"github.com/shashiranjanraj/bazaar/app/gql"
	"github.com/shashiranjanraj/bazaar/app/listeners"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/internal/kernel"
	"github.com/shashiranjanraj/bazaar/pkg/ai"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	pkggql "github.com/shashiranjanraj/bazaar/pkg/graphql"
	grpcserver "github.com/shashiranjanraj/bazaar/pkg/grpc"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// Verifier picks the identity provider from AUTH_PROVIDER. The JWT is
// returned as well in local mode so sessions can be issued.
func Verifier(ctx context.Context) (auth.Verifier, *auth.JWT, error) {
	switch p := config.AuthProvider(); p {
	case auth.ProviderLocal:
		j := auth.NewJWT(config.JWTSecret(), config.JWTTTL(), cache.Revocations{})
		return j, j, nil
	case auth.ProviderFirebase:
		v, err := auth.NewFirebaseVerifier(ctx, config.FirebaseProject(), config.FirebaseCredentials())
		if err != nil {
			return nil, nil, err
		}
		return v, nil, nil
	default:
		return nil, nil, fmt.Errorf("server: unknown AUTH_PROVIDER %q", p)
	}
}

// Build wires repositories, services, listeners and controllers over db and
// returns the HTTP kernel.
func Build(ctx context.Context, db *gorm.DB) (*kernel.HTTPKernel, error) {
	verifier, jwt, err := Verifier(ctx)
	if err != nil {
		return nil, err
	}
	var tokens services.TokenIssuer
	if jwt != nil {
		tokens = jwt
	}

	var (
		users    = repositories.NewUserRepository(db)
		products = repositories.NewProductRepository(db)
		reviews  = repositories.NewReviewRepository(db)
		requests = repositories.NewRequestRepository(db)
	)

	maxUpload := config.MaxUploadBytes()
	generator := ai.New(ai.Config{
		BaseURL: config.AIBaseURL(),
		APIKey:  config.AIAPIKey(),
		Model:   config.AIModel(),
		Timeout: config.AITimeout(),
	})
	if !generator.Configured() {
		logger.Warn("ai: AI_API_KEY not set, listing generation disabled")
	}

	var (
		authSvc    = services.NewAuthService(users, tokens)
		catalogSvc = services.NewCatalogService(products, config.CatalogCacheTTL())
		listingSvc = services.NewListingService(products, reviews, storage.Default, maxUpload)
		aiSvc      = services.NewListingAIService(generator)
		reviewSvc  = services.NewReviewService(products, reviews)
		requestSvc = services.NewRequestService(products, requests)
	)

	listeners.Register(catalogSvc)

	schema, err := gql.NewSchema(catalogSvc, listingSvc)
	if err != nil {
		return nil, fmt.Errorf("server: graphql schema: %w", err)
	}

	return kernel.NewHTTPKernel(kernel.Options{
		API: routes.API{
			Verifier:      verifier,
			LocalAccounts: authSvc.LocalAccounts(),
			AIRateLimit:   config.AIRateLimit(),
			Auth:          controllers.NewAuthController(authSvc),
			Listings:      controllers.NewListingController(catalogSvc, listingSvc, aiSvc, maxUpload),
			Reviews:       controllers.NewReviewController(reviewSvc),
			Requests:      controllers.NewRequestController(requestSvc),
		},
		GraphQL: pkggql.Handler(schema),
	}), nil
}

// Start boots every backend, serves until SIGINT/SIGTERM and then drains.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if uri := config.LogMongoURI(); uri != "" {
		closeArchive, err := logger.EnableArchive(ctx, uri, config.LogMongoDB())
		if err != nil {
			logger.Warn("logger: mongo archive disabled", "error", err)
		}
		defer closeArchive()
	}

	if err := database.Connect(); err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck

	if err := cache.Connect(ctx); err != nil {
		logger.Warn("cache: redis unavailable, using in-memory store", "error", err)
	}
	defer cache.Close() //nolint:errcheck

	if err := storage.Connect(ctx); err != nil {
		return err
	}

	k, err := Build(ctx, database.DB)
	if err != nil {
		return err
	}

	var grpcSrv *grpcserver.Server
	if port := config.GRPCPort(); port != "" {
		grpcSrv = grpcserver.New()
		if err := grpcSrv.Start(port); err != nil {
			return err
		}
	}
	defer grpcSrv.Stop()

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bazaar listening", "addr", srv.Addr, "env", config.AppEnv(), "auth", config.AuthProvider())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
