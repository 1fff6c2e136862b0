package configs

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const DefaultAPIURL = "http://localhost:5000"

// Config holds the two inputs of the validate-keys tool. The variable names are
// unprefixed because scripts and CI jobs already export them.
type Config struct {
	APIURL    string `mapstructure:"API_URL" validate:"required"`
	AuthToken string `mapstructure:"AUTH_TOKEN" validate:"required"` // full header value, "Bearer <token>"
}

// Load reads API_URL and AUTH_TOKEN. A missing AUTH_TOKEN is reported as pkg.ErrMissingCredential.
func Load(logger *zap.Logger) (*Config, error) {
	v := viper.New()
	v.SetDefault("API_URL", DefaultAPIURL)

	var cfg Config
	if err := utils.ParseStructEnv(v, &cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.StructField() == "AuthToken" {
					return nil, pkg.NewAppError(pkg.ErrConfigCode, "AUTH_TOKEN is not set", pkg.ErrMissingCredential)
				}
			}
		}
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
