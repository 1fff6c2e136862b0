package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds application configuration for admin-api.
type Config struct {
	Port                 string        `mapstructure:"PORT" validate:"required"`
	BackendURL           string        `mapstructure:"BACKEND_URL" validate:"required,url"`
	BackendAuthToken     string        `mapstructure:"BACKEND_AUTH_TOKEN"` // full Authorization header value
	SecretsProvider      string        `mapstructure:"SECRETS_PROVIDER" validate:"omitempty,oneof=env vault"`
	BackendAuthSecretKey string        `mapstructure:"BACKEND_AUTH_SECRET_KEY" validate:"required_without=BackendAuthToken"` // looked up when BACKEND_AUTH_TOKEN is empty
	BackendTimeout       time.Duration `mapstructure:"BACKEND_TIMEOUT" validate:"required"`
	TriggerRatePerMin    int           `mapstructure:"TRIGGER_RATE_PER_MIN" validate:"min=0"` // 0 disables the trigger limiter
	TriggerBurst         int           `mapstructure:"TRIGGER_BURST" validate:"min=1"`
	AdminUser            string        `mapstructure:"ADMIN_USER" validate:"required"`
	AdminPassword        string        `mapstructure:"ADMIN_PASSWORD"` // empty leaves /admin and /api/v1/admin open
}

func Load(logger *zap.Logger) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("app") // Prefix for env vars
	v.AutomaticEnv()

	// Default values
	v.SetDefault("PORT", "8080")
	v.SetDefault("BACKEND_URL", "http://localhost:5000")
	v.SetDefault("SECRETS_PROVIDER", "env")
	v.SetDefault("BACKEND_AUTH_SECRET_KEY", "PAYMENT_BACKEND_AUTH_TOKEN")
	v.SetDefault("BACKEND_TIMEOUT", "30s")
	v.SetDefault("TRIGGER_RATE_PER_MIN", "0")
	v.SetDefault("TRIGGER_BURST", "1")
	v.SetDefault("ADMIN_USER", "admin")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		v.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running_in_test_mode")
		v.SetConfigName("config.test")
	} else {
		logger.Warn("running_in_development_mode")
		v.SetConfigName("config.dev")
	}
	v.SetConfigType("yaml")
	v.AddConfigPath("./services/admin-api/configs")
	_ = v.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(v, &cfg); err != nil {
		return nil, err
	}

	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
