package scheme

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/services/render"
	"github.com/manyagkarle13/syllabus-maker/services/scheme"
	"github.com/manyagkarle13/syllabus-maker/utils/middleware"
	"github.com/manyagkarle13/syllabus-maker/utils/response"
	"github.com/manyagkarle13/syllabus-maker/utils/validation"
)

// SchemeHandler handles scheme build and document requests
type SchemeHandler struct {
	service   *services.SchemeService
	validator *validation.Validator
}

// NewSchemeHandler creates a new scheme handler
func NewSchemeHandler(service *services.SchemeService) *SchemeHandler {
	return &SchemeHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// SubmissionRequest is the JSON form of a faculty submission
type SubmissionRequest struct {
	Mode string          `json:"mode"`
	Rows []scheme.RawRow `json:"rows" validate:"dive"`
}

// GetRows handles GET /api/v1/schemes/:branch_id/:year/:semester/rows
func (h *SchemeHandler) GetRows(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return respondError(c, err)
	}

	preview, err := h.service.Preview(c.UserContext(), target, nil)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, preview)
}

// SaveScheme handles POST /api/v1/schemes/:branch_id/:year/:semester/save
func (h *SchemeHandler) SaveScheme(c *fiber.Ctx) error {
	return h.build(c, services.ModeSave)
}

// GenerateScheme handles POST /api/v1/schemes/:branch_id/:year/:semester/generate.
// The mode defaults to generate; ?mode=save_and_generate also saves the rows.
func (h *SchemeHandler) GenerateScheme(c *fiber.Ctx) error {
	return h.build(c, "")
}

func (h *SchemeHandler) build(c *fiber.Ctx, fixed services.BuildMode) error {
	target, err := parseTarget(c)
	if err != nil {
		return respondError(c, err)
	}

	sub, err := h.parseSubmission(c)
	if err != nil {
		var invalid *invalidSubmission
		if errors.As(err, &invalid) {
			return response.ValidationError(c, invalid.err)
		}
		return response.BadRequest(c, "Invalid request body")
	}

	mode := fixed
	if mode == "" {
		requested := c.Query("mode", sub.Mode)
		parsed, ok := services.ParseBuildMode(requested)
		if !ok || parsed == services.ModeSave {
			return response.BadRequest(c, fmt.Sprintf("Unsupported mode %q", requested))
		}
		mode = parsed
	}

	result, err := h.service.Build(c.UserContext(), services.BuildRequest{
		BranchID:  target.BranchID,
		Year:      target.Year,
		Semester:  target.Semester,
		Rows:      scheme.NormalizeSubmission(target, sub.Rows),
		Mode:      mode,
		Actor:     middleware.Actor(c),
		RequestID: middleware.RequestID(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return sendBuild(c, result)
}

// ExportScheme handles GET /api/v1/schemes/:branch_id/:year/:semester/export.xlsx
func (h *SchemeHandler) ExportScheme(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return respondError(c, err)
	}

	content, filename, err := h.service.Export(c.UserContext(), target)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, render.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(content)
}

// sendBuild writes the PDF itself when the client asked for it, and the
// build result as JSON otherwise. Warnings are reported both ways.
func sendBuild(c *fiber.Ctx, result *services.BuildResult) error {
	warnings := make([]response.Warning, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, response.Warning{Code: w.Code, Message: w.Message})
		c.Append(middleware.WarningHeader, w.Code)
	}

	if result.Document == nil {
		return response.SuccessWithMessage(c, fmt.Sprintf("Saved %d scheme rows", result.Written), result)
	}

	if wantsPDF(c) {
		c.Set(fiber.HeaderContentType, render.PDFContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, result.Document.Filename))
		return c.Status(fiber.StatusCreated).Send(result.Content)
	}

	if len(warnings) > 0 {
		return response.SuccessWithWarnings(c, "Scheme document generated", result, warnings)
	}
	return response.Created(c, result)
}

func wantsPDF(c *fiber.Ctx) bool {
	if format := c.Query("format"); format != "" {
		return strings.EqualFold(format, "pdf")
	}
	return c.Accepts(fiber.MIMEApplicationJSON, render.PDFContentType) == render.PDFContentType
}

func parseTarget(c *fiber.Ctx) (scheme.Target, error) {
	branchID, err := strconv.ParseUint(c.Params("branch_id"), 10, 32)
	if err != nil {
		return scheme.Target{}, fmt.Errorf("%w: invalid branch id", services.ErrInvalidTarget)
	}
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return scheme.Target{}, fmt.Errorf("%w: invalid year", services.ErrInvalidTarget)
	}
	semester, err := strconv.Atoi(c.Params("semester"))
	if err != nil {
		return scheme.Target{}, fmt.Errorf("%w: invalid semester", services.ErrInvalidTarget)
	}

	target := scheme.Target{BranchID: uint(branchID), Year: year, Semester: semester}
	if err := services.ValidateTarget(target); err != nil {
		return scheme.Target{}, err
	}
	return target, nil
}

type invalidSubmission struct{ err error }

func (e *invalidSubmission) Error() string { return e.err.Error() }

// parseSubmission accepts a JSON body or the repeated form fields the
// faculty form posts. An empty body is an empty submission.
func (h *SchemeHandler) parseSubmission(c *fiber.Ctx) (SubmissionRequest, error) {
	var sub SubmissionRequest

	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
	switch {
	case len(c.Body()) == 0:
		return sub, nil
	case strings.HasPrefix(contentType, fiber.MIMEApplicationForm),
		strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		sub.Mode = c.FormValue("mode")
		sub.Rows = scheme.ParseSubmission(func(key string) string {
			return c.FormValue(key)
		})
	default:
		if err := c.BodyParser(&sub); err != nil {
			return sub, err
		}
	}

	if err := h.validator.ValidateStruct(sub); err != nil {
		return sub, &invalidSubmission{err: err}
	}
	return sub, nil
}

// respondError maps service errors to responses.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidTarget):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrBranchNotFound):
		return response.NotFound(c, "Branch not found")
	case errors.Is(err, services.ErrDocumentNotFound):
		return response.NotFound(c, "Scheme document not found")
	case errors.Is(err, services.ErrDocumentNotTrashed),
		errors.Is(err, services.ErrDocumentAlreadyTrashed):
		return response.Conflict(c, err.Error())
	case errors.Is(err, scheme.ErrFrontMatterMissing):
		return response.ErrorWithDetails(c, fiber.StatusInternalServerError, "Scheme front matter is not configured", "FRONT_MATTER_MISSING", err.Error())
	case scheme.IsPersistenceFailure(err):
		return response.ErrorWithDetails(c, fiber.StatusInternalServerError, "The scheme rows could not be saved. Nothing was changed.", "PERSISTENCE_FAILED", err.Error())
	case errors.Is(err, services.ErrBlobStoreUnavailable):
		return response.ServiceUnavailable(c, "Document storage is not configured")
	}

	config.LogError(config.GetLogger(), "handlers/scheme", "respondError", "unhandled scheme error", c.Path(), err)
	return response.InternalServerError(c, "Failed to process scheme request")
}
