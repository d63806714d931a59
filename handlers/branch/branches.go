package branch

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/utils/middleware"
	"github.com/manyagkarle13/syllabus-maker/utils/response"
	"github.com/manyagkarle13/syllabus-maker/utils/validation"
	"gorm.io/gorm"
)

// BranchHandler handles branch registry requests
type BranchHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	activity  *services.ActivityService
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(db *gorm.DB, activity *services.ActivityService) *BranchHandler {
	return &BranchHandler{
		db:        db,
		validator: validation.NewValidator(),
		activity:  activity,
	}
}

// CreateBranchRequest represents the request body for creating a branch
type CreateBranchRequest struct {
	Code     string `json:"code" validate:"required,branchcode"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	IsActive *bool  `json:"is_active"`
}

// UpdateBranchRequest represents the request body for updating a branch
type UpdateBranchRequest struct {
	Code     string `json:"code" validate:"omitempty,branchcode"`
	Name     string `json:"name" validate:"omitempty,min=2,max=120"`
	IsActive *bool  `json:"is_active"`
}

// ListBranches handles GET /api/v1/branches
func (h *BranchHandler) ListBranches(c *fiber.Ctx) error {
	query := h.db.Model(&model.Branch{})
	if active := c.Query("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var branches []model.Branch
	if err := query.Order("code ASC").Find(&branches).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch branches")
	}
	return response.Success(c, branches)
}

// GetBranch handles GET /api/v1/branches/:id
func (h *BranchHandler) GetBranch(c *fiber.Ctx) error {
	branch, err := h.find(c)
	if err != nil {
		return findFailed(c, err)
	}
	return response.Success(c, branch)
}

// CreateBranch handles POST /api/v1/branches
func (h *BranchHandler) CreateBranch(c *fiber.Ctx) error {
	var req CreateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	branch := model.Branch{
		Code:     strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:     validation.SanitizeString(req.Name),
		IsActive: req.IsActive == nil || *req.IsActive,
	}

	if h.codeTaken(branch.Code, 0) {
		return response.Conflict(c, "Branch with this code already exists")
	}
	if err := h.db.Create(&branch).Error; err != nil {
		return response.InternalServerError(c, "Failed to create branch")
	}

	h.record(c, model.ActivityCreate, branch)
	return response.Created(c, branch)
}

// UpdateBranch handles PUT /api/v1/branches/:id
func (h *BranchHandler) UpdateBranch(c *fiber.Ctx) error {
	var req UpdateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	branch, err := h.find(c)
	if err != nil {
		return findFailed(c, err)
	}

	if req.Code != "" {
		code := strings.ToUpper(strings.TrimSpace(req.Code))
		if code != branch.Code && h.codeTaken(code, branch.ID) {
			return response.Conflict(c, "Branch with this code already exists")
		}
		branch.Code = code
	}
	if req.Name != "" {
		branch.Name = validation.SanitizeString(req.Name)
	}
	if req.IsActive != nil {
		branch.IsActive = *req.IsActive
	}

	if err := h.db.Save(branch).Error; err != nil {
		return response.InternalServerError(c, "Failed to update branch")
	}

	h.record(c, model.ActivityUpdate, *branch)
	return response.Success(c, branch)
}

// DeleteBranch handles DELETE /api/v1/branches/:id. Saved schemes and
// documents of the branch are kept.
func (h *BranchHandler) DeleteBranch(c *fiber.Ctx) error {
	branch, err := h.find(c)
	if err != nil {
		return findFailed(c, err)
	}

	if err := h.db.Delete(branch).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete branch")
	}

	h.record(c, model.ActivityDelete, *branch)
	return response.SuccessWithMessage(c, "Branch deleted successfully", nil)
}

var errInvalidID = errors.New("invalid branch id")

func (h *BranchHandler) find(c *fiber.Ctx) (*model.Branch, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, errInvalidID
	}

	var branch model.Branch
	if err := h.db.First(&branch, id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func findFailed(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errInvalidID):
		return response.BadRequest(c, "Invalid branch ID")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "Branch not found")
	default:
		return response.InternalServerError(c, "Failed to fetch branch")
	}
}

func (h *BranchHandler) codeTaken(code string, exceptID uint) bool {
	var count int64
	h.db.Unscoped().Model(&model.Branch{}).Where("code = ? AND id <> ?", code, exceptID).Count(&count)
	return count > 0
}

func (h *BranchHandler) record(c *fiber.Ctx, action string, branch model.Branch) {
	h.activity.Record(c.UserContext(), services.ActivityEntry{
		Action:     action,
		ObjectType: "branch",
		ObjectID:   branch.ID,
		ObjectName: branch.Code,
		Actor:      middleware.Actor(c),
	})
}
