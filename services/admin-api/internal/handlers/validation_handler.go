package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	middleware "github.com/nimeshabuddhika/payment-key-validator/pkg/middlewares"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/utils"
	"github.com/nimeshabuddhika/payment-key-validator/services/admin-api/internal/services"
	"github.com/nimeshabuddhika/payment-key-validator/services/admin-api/internal/views"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

const consoleTemplate = "validate_keys.html"

// Templates parses the admin console templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}

type consolePage struct {
	Protected bool
	Running   bool
	Notice  string
	Result  *views.ValidationView
}

type ValidationHandler struct {
	logger    *zap.Logger
	validator services.KeyValidator
}

func NewValidationHandler(logger *zap.Logger, validator services.KeyValidator) *ValidationHandler {
	return &ValidationHandler{logger: logger, validator: validator}
}

// RegisterRoutes registers the JSON API on api and the HTML console on console.
// limiter guards only the routes that start a validation; both share its bucket.
func (h *ValidationHandler) RegisterRoutes(api *gin.RouterGroup, console *gin.RouterGroup, limiter *middleware.RateLimiter) {
	api.POST("/admin/payment-keys/validate", limiter.Middleware(nil), h.TriggerValidation)
	api.GET("/admin/payment-keys/validation", h.GetValidation)

	console.GET("/validate-keys", h.GetConsole)
	console.POST("/validate-keys", limiter.Middleware(h.consoleRateLimited), h.SubmitConsole)
}

// TriggerValidation runs one validation and returns the rendered result.
func (h *ValidationHandler) TriggerValidation(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, "", pkg.NewAppError(pkg.ErrServerCode, "missing trace id", err))
		c.JSON(resp.Status, resp)
		return
	}

	outcome, err := h.validator.Run(c.Request.Context())
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	snap := h.validator.Snapshot()
	h.logger.Info("key_validation_rendered", zap.String(pkg.TraceId, traceID), zap.Bool("passes", outcome.Passes()))
	c.JSON(http.StatusOK, views.NewValidationView(outcome, snap.SettledAt))
}

func (h *ValidationHandler) GetValidation(c *gin.Context) {
	c.JSON(http.StatusOK, views.NewStateView(h.validator.Snapshot()))
}

func (h *ValidationHandler) GetConsole(c *gin.Context) {
	c.HTML(http.StatusOK, consoleTemplate, h.page(c, ""))
}

// SubmitConsole is the console's trigger button. While a run is in flight the
// button renders disabled and a submit is ignored.
func (h *ValidationHandler) SubmitConsole(c *gin.Context) {
	_, err := h.validator.Run(c.Request.Context())
	if errors.Is(err, services.ErrValidationInFlight) {
		c.HTML(http.StatusConflict, consoleTemplate, h.page(c, "A validation is already running."))
		return
	}
	c.HTML(http.StatusOK, consoleTemplate, h.page(c, ""))
}

func (h *ValidationHandler) consoleRateLimited(c *gin.Context, resp pkg.ErrorResponse) {
	c.HTML(resp.Status, consoleTemplate, h.page(c, "Too many validation runs. Try again in a minute."))
}

// page renders the current state. Protected is set when an admin account authenticated the request.
func (h *ValidationHandler) page(c *gin.Context, notice string) consolePage {
	state := views.NewStateView(h.validator.Snapshot())
	return consolePage{
		Protected: c.GetString(gin.AuthUserKey) != "",
		Running:   state.Running,
		Notice:    notice,
		Result:    state.Result,
	}
}
