package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/middleware"
	"github.com/aralhq/aral-go-api/internal/service"
	"github.com/aralhq/aral-go-api/internal/utils"
)

// SubmissionHandler wires submission intake and grading endpoints.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grading     service.GradingService
	logger      zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions service.SubmissionService, grading service.GradingService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		grading:     grading,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/", h.submit)
	router.Get("/mine/:activityID", h.studentView)

	instructor := middleware.RequireRole("instructor", "admin")
	router.Get("/", instructor, h.list)
	router.Patch("/visibility", instructor, h.bulkVisibility)
	router.Get("/:id", instructor, h.get)
	router.Patch("/:id/grade", instructor, h.grade)
	router.Patch("/:id/participation", instructor, h.participation)
	router.Post("/:id/finalize", instructor, h.finalize)
	router.Patch("/:id/visibility", instructor, h.visibility)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Students always submit as themselves; only instructors may record a
	// submission on another student's behalf.
	role := userRoleFromContext(c)
	if (role != "instructor" && role != "admin") || payload.StudentID == 0 {
		payload.StudentID = userIDFromContext(c)
	}

	submission, err := h.submissions.Submit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err, 0, "failed to submit work")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	var filter dto.SubmissionFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	submissions, err := h.submissions.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err, 0, "failed to list submissions")
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) studentView(c *fiber.Ctx) error {
	activityID, err := parseUintParam(c, "activityID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	submission, err := h.submissions.StudentView(c.Context(), activityID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err, activityID, "failed to load submission")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	submission, err := h.submissions.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err, id, "failed to load submission")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.grading.Grade(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to grade submission")
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *SubmissionHandler) participation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ParticipationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.grading.SetParticipation(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to record participation score")
	}

	return utils.SendSuccess(c, "participation score recorded", submission)
}

func (h *SubmissionHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	submission, err := h.grading.Finalize(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to finalize submission")
	}

	return utils.SendSuccess(c, "submission finalized", submission)
}

func (h *SubmissionHandler) visibility(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.VisibilityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.grading.SetVisibility(c.Context(), id, payload.Visible, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to change visibility")
	}

	return utils.SendSuccess(c, "visibility updated", submission)
}

func (h *SubmissionHandler) bulkVisibility(c *fiber.Ctx) error {
	var payload dto.BulkVisibilityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	changed, err := h.grading.BulkVisibility(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, payload.ActivityID, "failed to change visibility")
	}

	return utils.SendSuccess(c, "visibility updated", fiber.Map{"changed": changed})
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error, id uint, message string) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrActivityClosed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrScoreExceedsMax):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotGraded):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPeerReviewPending):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("id", id).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
