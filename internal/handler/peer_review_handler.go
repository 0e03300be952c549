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

// PeerReviewHandler wires peer review assignment and scoring endpoints.
type PeerReviewHandler struct {
	service service.PeerReviewService
	logger  zerolog.Logger
}

// NewPeerReviewHandler constructs the handler.
func NewPeerReviewHandler(service service.PeerReviewService, logger zerolog.Logger) *PeerReviewHandler {
	return &PeerReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "peer_review_handler").Logger(),
	}
}

// Register attaches peer review endpoints to the router group.
func (h *PeerReviewHandler) Register(router fiber.Router) {
	router.Get("/assigned", h.assignedToMe)
	router.Post("/assignments/:id/review", h.submitReview)

	instructor := middleware.RequireRole("instructor", "admin")
	router.Post("/activities/:id/assign", instructor, h.assignReviewers)
	router.Patch("/assignments/:id/quality", instructor, h.setQualityScore)
	router.Get("/submissions/:id/assignments", instructor, h.assignmentsForSubmission)
	router.Get("/submissions/:id/score", instructor, h.aggregateScore)
	router.Delete("/submissions/:id/assignments", instructor, h.resetAssignments)
}

func (h *PeerReviewHandler) assignedToMe(c *fiber.Ctx) error {
	assignments, err := h.service.AssignmentsForReviewer(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err, 0, "failed to list assignments")
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *PeerReviewHandler) assignReviewers(c *fiber.Ctx) error {
	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	results, err := h.service.AssignReviewers(c.Context(), activityID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, activityID, "failed to assign reviewers")
	}

	return utils.SendSuccess(c, "reviewers assigned", results)
}

func (h *PeerReviewHandler) submitReview(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SubmitReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SubmitReview(c.Context(), assignmentID, payload)
	if err != nil {
		return h.handleError(c, err, assignmentID, "failed to submit review")
	}

	return utils.SendSuccess(c, "review submitted", result)
}

func (h *PeerReviewHandler) setQualityScore(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.QualityScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	assignment, err := h.service.SetQualityScore(c.Context(), assignmentID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, assignmentID, "failed to record quality score")
	}

	return utils.SendSuccess(c, "quality score recorded", assignment)
}

func (h *PeerReviewHandler) assignmentsForSubmission(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	assignments, err := h.service.AssignmentsForSubmission(c.Context(), submissionID)
	if err != nil {
		return h.handleError(c, err, submissionID, "failed to list assignments")
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *PeerReviewHandler) aggregateScore(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	score, err := h.service.AggregatePeerScore(c.Context(), submissionID)
	if err != nil {
		return h.handleError(c, err, submissionID, "failed to aggregate peer score")
	}

	return utils.SendSuccess(c, "peer score computed", score)
}

func (h *PeerReviewHandler) resetAssignments(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.ResetAssignments(c.Context(), submissionID, actorFromContext(c)); err != nil {
		return h.handleError(c, err, submissionID, "failed to reset assignments")
	}

	return utils.SendSuccess(c, "assignments reset", nil)
}

func (h *PeerReviewHandler) handleError(c *fiber.Ctx, err error, id uint, message string) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrPeerReviewDisabled):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrReviewAlreadyCompleted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIncompleteReview):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrCriteriaMismatch):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNoCriteria):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("id", id).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
