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

// QuizHandler wires quiz management and attempt endpoints.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register attaches quiz endpoints to the router group.
func (h *QuizHandler) Register(router fiber.Router) {
	instructor := middleware.RequireRole("instructor", "admin")

	router.Post("/", instructor, h.create)
	router.Get("/:id", h.get)
	router.Get("/session/:sessionID", h.listBySession)
	router.Post("/:id/questions/import", instructor, h.importQuestions)
	router.Post("/:id/attempts", h.startAttempt)
	router.Post("/attempts/:id/submit", h.submitAttempt)
	router.Patch("/attempts/:id/visibility", instructor, h.attemptVisibility)
}

func (h *QuizHandler) withKeys(c *fiber.Ctx) bool {
	role := userRoleFromContext(c)
	return role == "instructor" || role == "admin"
}

func (h *QuizHandler) create(c *fiber.Ctx) error {
	var payload dto.QuizCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	quiz, err := h.service.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, 0, "failed to create quiz")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz created", quiz)
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	quiz, err := h.service.Get(c.Context(), id, h.withKeys(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to load quiz")
	}

	return utils.SendSuccess(c, "quiz retrieved", quiz)
}

func (h *QuizHandler) listBySession(c *fiber.Ctx) error {
	sessionID, err := parseUintParam(c, "sessionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	quizzes, err := h.service.ListBySession(c.Context(), sessionID, h.withKeys(c))
	if err != nil {
		return h.handleError(c, err, sessionID, "failed to list quizzes")
	}

	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *QuizHandler) importQuestions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	quiz, err := h.service.ImportQuestions(c.Context(), id, c.Body(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to import questions")
	}

	return utils.SendSuccess(c, "questions imported", quiz)
}

func (h *QuizHandler) startAttempt(c *fiber.Ctx) error {
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

func (h *QuizHandler) submitAttempt(c *fiber.Ctx) error {
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

func (h *QuizHandler) attemptVisibility(c *fiber.Ctx) error {
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

func (h *QuizHandler) handleError(c *fiber.Ctx, err error, id uint, message string) error {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
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
