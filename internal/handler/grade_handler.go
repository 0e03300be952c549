package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aralhq/aral-go-api/internal/service"
	"github.com/aralhq/aral-go-api/internal/utils"
)

// GradeHandler wires grade report endpoints.
type GradeHandler struct {
	service service.GradeSummaryService
	logger  zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradeSummaryService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches grade endpoints to the router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Get("/me", h.myGrades)
	router.Get("/:studentID", h.studentGrades)
}

func (h *GradeHandler) myGrades(c *fiber.Ctx) error {
	return h.summary(c, userIDFromContext(c))
}

func (h *GradeHandler) studentGrades(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	role := userRoleFromContext(c)
	if role != "instructor" && role != "admin" && studentID != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	return h.summary(c, studentID)
}

func (h *GradeHandler) summary(c *fiber.Ctx, studentID uint) error {
	summary, err := h.service.Summary(c.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to build grade summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build grade summary")
	}

	return utils.SendSuccess(c, "grades retrieved", summary)
}
