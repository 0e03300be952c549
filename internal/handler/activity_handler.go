package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/scoring"
	"github.com/aralhq/aral-go-api/internal/service"
	"github.com/aralhq/aral-go-api/internal/utils"
)

// ActivityHandler wires activity management endpoints for instructors.
type ActivityHandler struct {
	service service.ActivityAdminService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityAdminService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity endpoints to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Put("/:id/criteria", h.replaceCriteria)
	router.Patch("/:id/active", h.setActive)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, 0, "failed to create activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	var filter repository.ActivityFilter

	sessionID, err := parseQueryUint(c, "session_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session_id")
	}
	filter.SessionID = sessionID

	subjectID, err := parseQueryUint(c, "subject_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject_id")
	}
	filter.SubjectID = subjectID

	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	activities, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err, 0, "failed to list activities")
	}

	return utils.SendSuccess(c, "activities retrieved", activities)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	activity, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err, id, "failed to load activity")
	}

	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ActivityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.Update(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to update activity")
	}

	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) replaceCriteria(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.CriteriaReplaceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.ReplaceCriteria(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to replace criteria")
	}

	return utils.SendSuccess(c, "criteria replaced", activity)
}

func (h *ActivityHandler) setActive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.SetActive(c.Context(), id, payload.Active, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, id, "failed to change activity state")
	}

	return utils.SendSuccess(c, "activity state updated", activity)
}

func (h *ActivityHandler) handleError(c *fiber.Ctx, err error, id uint, message string) error {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, scoring.ErrNonPositiveWeight):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("activity_id", id).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
