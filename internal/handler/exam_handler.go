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

// ExamHandler wires exam management and attempt endpoints.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches exam endpoints to the router group.
func (h *ExamHandler) Register(router fiber.Router) {
	instructor := middleware.RequireRole("instructor", "admin")

	router.Post("/", instructor, h.create)
	router.Get("/:id", h.get)
	router.Get("/subject/:subjectID", h.listBySubject)
	router.Post("/:id/questions/import", instructor, h.importQuestions)
	router.Post("/:id/attempts", h.startAttempt)
	router.Post("/attempts/:id/submit", h.submitAttempt)
	router.Patch("/attempts/:id/visibility", instructor, h.attemptVisibility)
}

func (h *ExamHandler) withKeys(c *fiber.Ctx) bool {
	role := userRoleFromContext(c)
	return role == "instructor" || role == "admin"
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	exam, err := h.service.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, 0, "failed to create exam")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	exam, err := h.service.Get(c.Context(), id, h.withKeys(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to load exam")
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) listBySubject(c *fiber.Ctx) error {
	subjectID, err := parseUintParam(c, "subjectID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	exams, err := h.service.ListBySubject(c.Context(), subjectID, h.withKeys(c))
	if err != nil {
		return h.handleError(c, err, subjectID, "failed to list exams")
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) importQuestions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	exam, err := h.service.ImportQuestions(c.Context(), id, c.Body(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to import questions")
	}

	return utils.SendSuccess(c, "questions imported", exam)
}

func (h *ExamHandler) startAttempt(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	attempt, err := h.service.StartAttempt(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to start attempt")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt started", attempt)
}

func (h *ExamHandler) submitAttempt(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AttemptSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.SubmitAttempt(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err, id, "failed to submit attempt")
	}

	return utils.SendSuccess(c, "attempt graded", attempt)
}

func (h *ExamHandler) attemptVisibility(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.VisibilityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.SetAttemptVisibility(c.Context(), id, payload.Visible, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to change visibility")
	}

	return utils.SendSuccess(c, "visibility updated", attempt)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error, id uint, message string) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attempt not found")
	case errors.Is(err, service.ErrAttemptAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTimeLimitExceeded):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoQuestions):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidQuestionBank):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("id", id).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
