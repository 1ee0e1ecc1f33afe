package http

import (
	"errors"
	"hash/fnv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
	"github.com/melih/lighthouse-factory/internal/core/ports"
)

var validate = validator.New()

// AppHandler exposes the provisioning pipelines and app lifecycle.
type AppHandler struct {
	service ports.ProvisioningService
	logger  zerolog.Logger
}

func NewAppHandler(service ports.ProvisioningService, logger zerolog.Logger) *AppHandler {
	return &AppHandler{
		service: service,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

type CreateAppRequest struct {
	Name      string `json:"name" validate:"required,max=63"`
	Port      int    `json:"port" validate:"omitempty,min=1,max=65535"`
	CompanyID string `json:"companyId"`
	StreamID  string `json:"streamId"`
}

type TemplateAppRequest struct {
	Name      string `validate:"required,max=63"`
	Port      int    `query:"port" validate:"omitempty,min=1,max=65535"`
	CompanyID string `query:"companyId" validate:"required"`
	StreamID  string `query:"streamId"`
}

type appResponse struct {
	domain.Container
	URL string `json:"url,omitempty"`
}

// CreateApp runs the scratch pipeline. It blocks until the container runs.
func (h *AppHandler) CreateApp(c *fiber.Ctx) error {
	var req CreateAppRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	res, err := h.service.CreateAndRun(c.UserContext(), domain.ProvisionRequest{
		Name:     req.Name,
		Port:     portOrDefault(req.Port, req.Name),
		StreamID: req.StreamID,
		TenantID: req.CompanyID,
	})
	if err != nil {
		return h.pipelineError(c, err, res)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// CreateFromTemplate runs the template pipeline for the app in the path.
func (h *AppHandler) CreateFromTemplate(c *fiber.Ctx) error {
	var req TemplateAppRequest
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	req.Name = c.Params("name")
	if err := validate.Struct(req); err != nil {
		return err
	}

	res, err := h.service.CreateFromTemplate(c.UserContext(), domain.ProvisionRequest{
		Name:     req.Name,
		Port:     portOrDefault(req.Port, req.Name),
		StreamID: req.StreamID,
		TenantID: req.CompanyID,
	})
	if err != nil {
		return h.pipelineError(c, err, res)
	}
	return c.JSON(res)
}

func (h *AppHandler) pipelineError(c *fiber.Ctx, err error, res domain.Result) error {
	code := statusFor(err)
	h.logger.Error().Err(err).Int("status", code).Str("container", res.Container).Msg("pipeline failed")
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"logs":  res.Log,
	})
}

func (h *AppHandler) RemoveApp(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AppHandler) ListApps(c *fiber.Ctx) error {
	containers, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	apps := make([]appResponse, 0, len(containers))
	for _, ct := range containers {
		apps = append(apps, h.toResponse(ct))
	}
	return c.JSON(apps)
}

func (h *AppHandler) GetApp(c *fiber.Ctx) error {
	ct, err := h.service.Status(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(h.toResponse(ct))
}

// GetAppLogs returns the container output as plain text.
func (h *AppHandler) GetAppLogs(c *fiber.Ctx) error {
	tail := c.QueryInt("tail", 200)
	if tail < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "tail must be positive")
	}
	logs, err := h.service.Logs(c.UserContext(), c.Params("name"), tail)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(logs)
}

func (h *AppHandler) Ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *AppHandler) toResponse(ct domain.Container) appResponse {
	resp := appResponse{Container: ct}
	if ct.HostPort > 0 {
		resp.URL = h.service.AppURL(ct.HostPort)
	}
	return resp
}

// DefaultPort derives a stable host port in [9000, 17000) from the app
// name.
func DefaultPort(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return 9000 + int(h.Sum32()%8000)
}

func portOrDefault(port int, name string) int {
	if port > 0 {
		return port
	}
	return DefaultPort(name)
}

// ErrorHandler maps domain errors to HTTP status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": errorMessage(err)})
}

func statusFor(err error) int {
	var (
		fiberErr   *fiber.Error
		pre        *domain.PreconditionError
		missing    *domain.ConfigurationMissingError
		validation validator.ValidationErrors
	)
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &pre):
		return fiber.StatusConflict
	case errors.As(err, &missing):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAppNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var validation validator.ValidationErrors
	if errors.As(err, &validation) && len(validation) > 0 {
		fe := validation[0]
		msg := "invalid " + fe.Field() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return msg
	}
	return err.Error()
}

