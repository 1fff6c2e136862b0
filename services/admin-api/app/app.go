package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/backend"
	middleware "github.com/nimeshabuddhika/payment-key-validator/pkg/middlewares"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/secrets"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/utils"
	"github.com/nimeshabuddhika/payment-key-validator/services/admin-api/configs"
	"github.com/nimeshabuddhika/payment-key-validator/services/admin-api/internal/handlers"
	"github.com/nimeshabuddhika/payment-key-validator/services/admin-api/internal/services"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	authorization, err := ResolveAuthorization(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	httpClient := utils.NewHTTPClient(utils.WithClientTimeout(cfg.BackendTimeout))
	client := backend.NewClient(logger, httpClient, backend.Config{
		BaseURL:       cfg.BackendURL,
		Authorization: authorization,
	})
	validator := services.NewKeyValidator(services.KeyValidatorConfig{
		Logger: logger,
		Client: client,
	})

	r := NewRouter(logger, cfg, validator)
	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: r}

	cleanup := func() {
		httpClient.CloseIdleConnections()
	}
	return srv, cleanup, nil
}

// NewRouter builds the Gin engine around an already wired validator.
func NewRouter(logger *zap.Logger, cfg *configs.Config, validator services.KeyValidator) *gin.Engine {
	baseHandler := handlers.NewBaseHandler(logger)
	validationHandler := handlers.NewValidationHandler(logger, validator)

	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(handlers.Templates())

	limiter := middleware.NewRateLimiter(logger, cfg.TriggerRatePerMin, cfg.TriggerBurst)
	adminAuth := middleware.AdminAuth(logger, cfg.AdminUser, cfg.AdminPassword)

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID(logger))
	api.Use(middleware.Metrics())
	api.Use(adminAuth)

	console := r.Group("/admin")
	console.Use(middleware.TraceID(logger))
	console.Use(middleware.Metrics())
	console.Use(adminAuth)

	validationHandler.RegisterRoutes(api, console, limiter)
	baseHandler.RegisterRoutes(r)
	return r
}

// ResolveAuthorization returns the Authorization header value for backend calls: the
// configured token, or the one stored under BackendAuthSecretKey in the secrets provider.
func ResolveAuthorization(ctx context.Context, cfg *configs.Config) (string, error) {
	if !utils.IsEmpty(cfg.BackendAuthToken) {
		return cfg.BackendAuthToken, nil
	}
	source, err := secrets.New(cfg.SecretsProvider)
	if err != nil {
		return "", pkg.NewAppError(pkg.ErrConfigCode, "invalid secrets provider", err)
	}
	token, err := source.Get(ctx, cfg.BackendAuthSecretKey)
	if err == nil && utils.IsEmpty(token) {
		err = pkg.ErrMissingCredential
	}
	if err != nil {
		msg := fmt.Sprintf("backend credential not found in %s source", source.Name())
		return "", pkg.NewAppError(pkg.ErrConfigCode, msg, errors.Join(pkg.ErrMissingCredential, err))
	}
	return token, nil
}
