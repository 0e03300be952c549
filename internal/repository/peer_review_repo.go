package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/models"
)

// PeerReviewRepository defines data operations for review assignments and
// responses.
type PeerReviewRepository interface {
	AssignmentsBySubmission(ctx context.Context, submissionID uint) ([]models.PeerReviewAssignment, error)
	AssignmentsByReviewer(ctx context.Context, reviewerID uint) ([]models.PeerReviewAssignment, error)
	GetAssignment(ctx context.Context, id uint) (models.PeerReviewAssignment, error)
	CreateAssignments(ctx context.Context, assignments []models.PeerReviewAssignment) error
	UpdateAssignment(ctx context.Context, assignment *models.PeerReviewAssignment) error
	CompleteAssignment(ctx context.Context, assignmentID uint, completedAt time.Time, responses []models.PeerReviewResponse) error
	ResetBySubmission(ctx context.Context, submissionID uint) error
}

type peerReviewRepository struct {
	db *gorm.DB
}

// NewPeerReviewRepository instantiates the repository.
func NewPeerReviewRepository(db *gorm.DB) PeerReviewRepository {
	return &peerReviewRepository{db: db}
}

func (r *peerReviewRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PeerReviewAssignment{}).
		Preload("Submission").
		Preload("Submission.Activity").
		Preload("Submission.Activity.Criteria").
		Preload("Reviewer").
		Preload("Responses")
}

func (r *peerReviewRepository) AssignmentsBySubmission(ctx context.Context, submissionID uint) ([]models.PeerReviewAssignment, error) {
	var assignments []models.PeerReviewAssignment
	if err := r.baseQuery(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *peerReviewRepository) AssignmentsByReviewer(ctx context.Context, reviewerID uint) ([]models.PeerReviewAssignment, error) {
	var assignments []models.PeerReviewAssignment
	if err := r.baseQuery(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *peerReviewRepository) GetAssignment(ctx context.Context, id uint) (models.PeerReviewAssignment, error) {
	var assignment models.PeerReviewAssignment
	if err := r.baseQuery(ctx).First(&assignment, id).Error; err != nil {
		return models.PeerReviewAssignment{}, err
	}

	return assignment, nil
}

// CreateAssignments persists a batch of assignments atomically so that a
// partially applied draw is never observable.
func (r *peerReviewRepository) CreateAssignments(ctx context.Context, assignments []models.PeerReviewAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&assignments).Error
	})
}

func (r *peerReviewRepository) UpdateAssignment(ctx context.Context, assignment *models.PeerReviewAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// CompleteAssignment stores the reviewer's responses and flips the assignment
// to completed in one transaction.
func (r *peerReviewRepository) CompleteAssignment(ctx context.Context, assignmentID uint, completedAt time.Time, responses []models.PeerReviewResponse) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range responses {
			responses[i].AssignmentID = assignmentID
		}
		if len(responses) > 0 {
			if err := tx.Create(&responses).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.PeerReviewAssignment{}).
			Where("id = ?", assignmentID).
			Updates(map[string]interface{}{
				"is_completed": true,
				"completed_at": completedAt,
			}).Error
	})
}

// ResetBySubmission removes every assignment and response for a submission so
// reviewers can be redrawn.
func (r *peerReviewRepository) ResetBySubmission(ctx context.Context, submissionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignmentIDs []uint
		if err := tx.Model(&models.PeerReviewAssignment{}).
			Where("submission_id = ?", submissionID).
			Pluck("id", &assignmentIDs).Error; err != nil {
			return err
		}

		if len(assignmentIDs) > 0 {
			if err := tx.Where("assignment_id IN ?", assignmentIDs).Delete(&models.PeerReviewResponse{}).Error; err != nil {
				return err
			}
		}

		return tx.Where("submission_id = ?", submissionID).Delete(&models.PeerReviewAssignment{}).Error
	})
}
