package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/models"
)

// ActivityFilter narrows activity queries.
type ActivityFilter struct {
	SessionID *uint
	SubjectID *uint
	IsActive  *bool
}

// ActivityRepository defines data operations for activities and their rubric
// criteria.
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error)
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	CriteriaByActivity(ctx context.Context, activityID uint) ([]models.PeerReviewCriterion, error)
	ReplaceCriteria(ctx context.Context, activityID uint, criteria []models.PeerReviewCriterion) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Activity{}).
		Preload("Session").
		Preload("Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error) {
	query := r.baseQuery(ctx)

	if filter.SessionID != nil {
		query = query.Where("session_id = ?", *filter.SessionID)
	}

	if filter.SubjectID != nil {
		query = query.Joins("JOIN sessions ON sessions.id = activities.session_id").
			Where("sessions.subject_id = ?", *filter.SubjectID)
	}

	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var activities []models.Activity
	if err := query.Order("activities.id ASC").Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.baseQuery(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *activityRepository) CriteriaByActivity(ctx context.Context, activityID uint) ([]models.PeerReviewCriterion, error) {
	var criteria []models.PeerReviewCriterion
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("position ASC").
		Find(&criteria).Error; err != nil {
		return nil, err
	}

	return criteria, nil
}

func (r *activityRepository) ReplaceCriteria(ctx context.Context, activityID uint, criteria []models.PeerReviewCriterion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", activityID).Delete(&models.PeerReviewCriterion{}).Error; err != nil {
			return err
		}
		if len(criteria) == 0 {
			return nil
		}
		for i := range criteria {
			criteria[i].ActivityID = activityID
			criteria[i].Position = i + 1
		}
		return tx.Create(&criteria).Error
	})
}
