package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/services/scheme"
	"github.com/manyagkarle13/syllabus-maker/utils/middleware"
	"github.com/manyagkarle13/syllabus-maker/utils/response"
	"github.com/manyagkarle13/syllabus-maker/utils/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CacheInvalidator drops cached catalog lookups
type CacheInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// CatalogHandler handles dean catalog requests
type CatalogHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	activity  *services.ActivityService
	cache     CacheInvalidator
}

// NewCatalogHandler creates a catalog handler. cache may be nil when no
// catalog cache is configured.
func NewCatalogHandler(db *gorm.DB, activity *services.ActivityService, cache CacheInvalidator) *CatalogHandler {
	return &CatalogHandler{
		db:        db,
		validator: validation.NewValidator(),
		activity:  activity,
		cache:     cache,
	}
}

// CourseRequest is the body of POST and PUT. PUT replaces every field.
type CourseRequest struct {
	BranchID    *uint           `json:"branch_id"`
	Semester    int             `json:"semester" validate:"required,min=1,max=8"`
	CourseType  string          `json:"course_type" validate:"required,max=16"`
	CourseCode  string          `json:"course_code" validate:"required,coursecode"`
	CourseTitle string          `json:"course_title" validate:"required,min=2,max=200"`
	L           int             `json:"l" validate:"min=0,max=20"`
	T           int             `json:"t" validate:"min=0,max=20"`
	P           int             `json:"p" validate:"min=0,max=20"`
	CIE         *int            `json:"cie" validate:"omitempty,min=0,max=200"`
	SEE         *int            `json:"see" validate:"omitempty,min=0,max=200"`
	Credits     decimal.Decimal `json:"credits"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
}

// ListCourses handles GET /api/v1/catalog/courses
func (h *CatalogHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := h.db.Model(&model.CatalogCourse{})
	switch branch := c.Query("branch_id"); branch {
	case "":
	case "global":
		query = query.Where("branch_id IS NULL")
	default:
		id, err := strconv.ParseUint(branch, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid branch ID")
		}
		// a branch sees its own courses and the global ones
		query = query.Where("branch_id IS NULL OR branch_id = ?", id)
	}
	if semester := c.QueryInt("semester"); semester != 0 {
		query = query.Where("semester = ?", semester)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count catalog courses")
	}

	var courses []model.CatalogCourse
	if err := query.Order("semester ASC, course_code ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch catalog courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// GetCourse handles GET /api/v1/catalog/courses/:id
func (h *CatalogHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.find(c)
	if err != nil {
		return findFailed(c, err)
	}
	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/catalog/courses
func (h *CatalogHandler) CreateCourse(c *fiber.Ctx) error {
	req, failed := h.parse(c)
	if failed != nil {
		return failed()
	}

	course := model.CatalogCourse{AddedBy: middleware.Actor(c).Name}
	apply(&course, req)

	if err := h.db.Create(&course).Error; err != nil {
		config.LogError(config.GetLogger(), "handlers/catalog", "CreateCourse", "create catalog course", course.CourseCode, err)
		return response.InternalServerError(c, "Failed to create catalog course")
	}

	h.changed(c, model.ActivityCreate, course)
	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/catalog/courses/:id
func (h *CatalogHandler) UpdateCourse(c *fiber.Ctx) error {
	course, err := h.find(c)
	if err != nil {
		return findFailed(c, err)
	}

	req, failed := h.parse(c)
	if failed != nil {
		return failed()
	}
	apply(course, req)
	course.Branch = nil

	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update catalog course")
	}

	h.changed(c, model.ActivityUpdate, *course)
	return response.Success(c, course)
}

// DeleteCourse handles DELETE /api/v1/catalog/courses/:id
func (h *CatalogHandler) DeleteCourse(c *fiber.Ctx) error {
	course, err := h.find(c)
	if err != nil {
		return findFailed(c, err)
	}

	if err := h.db.Delete(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete catalog course")
	}

	h.changed(c, model.ActivityDelete, *course)
	return response.SuccessWithMessage(c, "Catalog course deleted successfully", nil)
}

// parse reads and validates the body. On failure the returned func writes
// the error response.
func (h *CatalogHandler) parse(c *fiber.Ctx) (CourseRequest, func() error) {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return req, func() error { return response.BadRequest(c, "Invalid request body") }
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return req, func() error { return response.ValidationError(c, err) }
	}
	if req.Credits.IsNegative() {
		return req, func() error { return response.BadRequest(c, "Credits must not be negative") }
	}
	if req.BranchID != nil {
		var count int64
		h.db.Model(&model.Branch{}).Where("id = ?", *req.BranchID).Count(&count)
		if count == 0 {
			return req, func() error { return response.NotFound(c, "Branch not found") }
		}
	}
	return req, nil
}

func apply(course *model.CatalogCourse, req CourseRequest) {
	course.BranchID = req.BranchID
	course.Semester = req.Semester
	course.CourseType = strings.ToUpper(strings.TrimSpace(req.CourseType))
	course.CourseCode = scheme.NormalizeCode(req.CourseCode)
	course.CourseTitle = validation.SanitizeString(req.CourseTitle)
	course.L, course.T, course.P = req.L, req.T, req.P
	course.CIE, course.SEE = 50, 50
	if req.CIE != nil {
		course.CIE = *req.CIE
	}
	if req.SEE != nil {
		course.SEE = *req.SEE
	}
	course.Credits = req.Credits
	course.Description = validation.SanitizeString(req.Description)
}

var errInvalidID = errors.New("invalid catalog course id")

func (h *CatalogHandler) find(c *fiber.Ctx) (*model.CatalogCourse, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, errInvalidID
	}
	var course model.CatalogCourse
	if err := h.db.First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func findFailed(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errInvalidID):
		return response.BadRequest(c, "Invalid catalog course ID")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "Catalog course not found")
	default:
		return response.InternalServerError(c, "Failed to fetch catalog course")
	}
}

// changed invalidates cached catalog lookups and records the change.
func (h *CatalogHandler) changed(c *fiber.Ctx, action string, course model.CatalogCourse) {
	if h.cache != nil {
		if n, err := h.cache.DeletePrefix(c.UserContext(), scheme.CatalogCachePrefix); err != nil {
			config.LogError(config.GetLogger(), "handlers/catalog", "changed", "invalidate catalog cache", course.CourseCode, err)
		} else {
			config.GetLogger().WithField("keys", n).Debug("catalog cache invalidated")
		}
	}
	h.activity.Record(c.UserContext(), services.ActivityEntry{
		Action:      action,
		ObjectType:  "catalog_course",
		ObjectID:    course.ID,
		ObjectName:  course.CourseCode,
		Description: course.CourseTitle,
		Actor:       middleware.Actor(c),
		Metadata:    map[string]interface{}{"semester": course.Semester, "branch_id": course.BranchID},
	})
}
