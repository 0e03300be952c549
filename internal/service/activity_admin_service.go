package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/scoring"
)

// ActivityAdminService covers the instructor side of activities: CRUD,
// rubric management and opening or closing submissions.
type ActivityAdminService interface {
	Create(ctx context.Context, payload dto.ActivityCreateRequest, actor Actor) (dto.ActivityResponse, error)
	Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest, actor Actor) (dto.ActivityResponse, error)
	Get(ctx context.Context, id uint) (dto.ActivityResponse, error)
	List(ctx context.Context, filter repository.ActivityFilter) ([]dto.ActivityResponse, error)
	ReplaceCriteria(ctx context.Context, id uint, payload dto.CriteriaReplaceRequest, actor Actor) (dto.ActivityResponse, error)
	SetActive(ctx context.Context, id uint, active bool, actor Actor) (dto.ActivityResponse, error)
}

// ActivityDefaults carries operator-configurable fallbacks applied when a
// create payload leaves them out.
type ActivityDefaults struct {
	DueTime   string
	Reviewers int
}

type activityAdminService struct {
	activities repository.ActivityRepository
	validator  *validator.Validate
	audit      AuditRecorder
	defaults   ActivityDefaults
	logger     zerolog.Logger
}

// NewActivityAdminService constructs an ActivityAdminService.
func NewActivityAdminService(activityRepo repository.ActivityRepository, validate *validator.Validate, audit AuditRecorder, defaults ActivityDefaults, logger zerolog.Logger) ActivityAdminService {
	if defaults.DueTime == "" {
		defaults.DueTime = scoring.DefaultDueTime
	}
	if defaults.Reviewers <= 0 {
		defaults.Reviewers = 3
	}

	return &activityAdminService{
		activities: activityRepo,
		validator:  validate,
		audit:      audit,
		defaults:   defaults,
		logger:     logger.With().Str("component", "activity_admin_service").Logger(),
	}
}

func (s *activityAdminService) Create(ctx context.Context, payload dto.ActivityCreateRequest, actor Actor) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity := models.Activity{
		SessionID:         payload.SessionID,
		ActivityNumber:    payload.ActivityNumber,
		Title:             payload.Title,
		Instructions:      payload.Instructions,
		Points:            payload.Points,
		DueDate:           payload.DueDate,
		DueTime:           payload.DueTime,
		PenaltyPerDay:     payload.PenaltyPerDay,
		PeerReviewEnabled: payload.PeerReviewEnabled,
		PeerReviewerCount: payload.PeerReviewerCount,
		IsActive:          true,
	}
	if activity.Points <= 0 {
		activity.Points = 100
	}
	if activity.DueTime == "" {
		activity.DueTime = s.defaults.DueTime
	}
	if activity.PeerReviewEnabled && activity.PeerReviewerCount <= 0 {
		activity.PeerReviewerCount = s.defaults.Reviewers
	}

	applyWeightDefaults(&activity, payload.InstructorWeight, payload.PeerWeight, payload.ParticipationWeight)
	if err := validateWeights(activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "activity.created", "activity", activity.ID, map[string]interface{}{
		"title": activity.Title,
	})

	return dto.NewActivityResponse(activity), nil
}

func (s *activityAdminService) Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest, actor Actor) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if payload.Title != nil {
		activity.Title = *payload.Title
	}
	if payload.Instructions != nil {
		activity.Instructions = *payload.Instructions
	}
	if payload.Points != nil {
		activity.Points = *payload.Points
	}
	if payload.DueDate != nil {
		activity.DueDate = payload.DueDate
	}
	if payload.DueTime != nil {
		activity.DueTime = *payload.DueTime
	}
	if payload.PenaltyPerDay != nil {
		activity.PenaltyPerDay = *payload.PenaltyPerDay
	}
	if payload.IsActive != nil {
		activity.IsActive = *payload.IsActive
	}
	if payload.PeerReviewEnabled != nil {
		activity.PeerReviewEnabled = *payload.PeerReviewEnabled
	}
	if payload.PeerReviewerCount != nil {
		activity.PeerReviewerCount = *payload.PeerReviewerCount
	}
	if payload.InstructorWeight != nil {
		activity.InstructorWeight = *payload.InstructorWeight
	}
	if payload.PeerWeight != nil {
		activity.PeerWeight = *payload.PeerWeight
	}
	if payload.ParticipationWeight != nil {
		activity.ParticipationWeight = *payload.ParticipationWeight
	}

	if err := validateWeights(activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Update(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "activity.updated", "activity", activity.ID, nil)

	return dto.NewActivityResponse(activity), nil
}

func (s *activityAdminService) Get(ctx context.Context, id uint) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityAdminService) List(ctx context.Context, filter repository.ActivityFilter) ([]dto.ActivityResponse, error) {
	activities, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponseSlice(activities), nil
}

// ReplaceCriteria swaps the activity's rubric for the given ordered list.
// Existing peer review responses keep pointing at deleted criteria rows, so
// callers should reset assignments first when reviews are underway.
func (s *activityAdminService) ReplaceCriteria(ctx context.Context, id uint, payload dto.CriteriaReplaceRequest, actor Actor) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	if _, err := s.activities.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	criteria := make([]models.PeerReviewCriterion, 0, len(payload.Criteria))
	for _, item := range payload.Criteria {
		criteria = append(criteria, models.PeerReviewCriterion{
			Description: item.Description,
			Points:      item.Points,
		})
	}

	if err := s.activities.ReplaceCriteria(ctx, id, criteria); err != nil {
		return dto.ActivityResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, "activity.criteria_replaced", "activity", id, map[string]interface{}{
		"count": len(criteria),
	})

	return s.Get(ctx, id)
}

func (s *activityAdminService) SetActive(ctx context.Context, id uint, active bool, actor Actor) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	activity.IsActive = active
	if err := s.activities.Update(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	action := "activity.closed"
	if active {
		action = "activity.opened"
	}
	recordAudit(ctx, s.audit, s.logger, actor, action, "activity", activity.ID, nil)

	return dto.NewActivityResponse(activity), nil
}

// applyWeightDefaults fills missing score weights. Peer reviewed activities
// default to a 70/30 instructor/peer split; everything else is graded by the
// instructor alone.
func applyWeightDefaults(activity *models.Activity, instructor, peer, participation *float64) {
	switch {
	case instructor != nil:
		activity.InstructorWeight = *instructor
	case activity.PeerReviewEnabled:
		activity.InstructorWeight = 0.7
	default:
		activity.InstructorWeight = 1
	}

	switch {
	case peer != nil:
		activity.PeerWeight = *peer
	case activity.PeerReviewEnabled:
		activity.PeerWeight = 0.3
	default:
		activity.PeerWeight = 0
	}

	if participation != nil {
		activity.ParticipationWeight = *participation
	}
}

func validateWeights(activity models.Activity) error {
	total := activity.InstructorWeight + activity.PeerWeight + activity.ParticipationWeight
	if total <= 0 {
		return scoring.ErrNonPositiveWeight
	}

	return nil
}
