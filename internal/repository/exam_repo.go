package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/models"
)

// ExamRepository defines data operations for exams, questions and attempts.
type ExamRepository interface {
	ListBySubject(ctx context.Context, subjectID uint) ([]models.Exam, error)
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	AddQuestions(ctx context.Context, examID uint, questions []models.ExamQuestion) error
	GetAttempt(ctx context.Context, id uint) (models.ExamAttempt, error)
	FindOpenAttempt(ctx context.Context, examID, studentID uint) (models.ExamAttempt, error)
	CreateAttempt(ctx context.Context, attempt *models.ExamAttempt) error
	UpdateAttempt(ctx context.Context, attempt *models.ExamAttempt) error
	AttemptsForSubject(ctx context.Context, subjectID, studentID uint) ([]models.ExamAttempt, error)
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Exam{}).
		Preload("Subject").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *examRepository) ListBySubject(ctx context.Context, subjectID uint) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.baseQuery(ctx).
		Where("subject_id = ?", subjectID).
		Order("exam_type ASC").
		Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.baseQuery(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) AddQuestions(ctx context.Context, examID uint, questions []models.ExamQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int64
		if err := tx.Model(&models.ExamQuestion{}).Where("exam_id = ?", examID).Count(&next).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ExamID = examID
			questions[i].Position = int(next) + i + 1
		}
		return tx.Create(&questions).Error
	})
}

func (r *examRepository) attemptQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ExamAttempt{}).
		Preload("Exam").
		Preload("Exam.Questions").
		Preload("Student")
}

func (r *examRepository) GetAttempt(ctx context.Context, id uint) (models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := r.attemptQuery(ctx).First(&attempt, id).Error; err != nil {
		return models.ExamAttempt{}, err
	}

	return attempt, nil
}

func (r *examRepository) FindOpenAttempt(ctx context.Context, examID, studentID uint) (models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := r.attemptQuery(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		Where("submitted_at IS NULL").
		First(&attempt).Error; err != nil {
		return models.ExamAttempt{}, err
	}

	return attempt, nil
}

func (r *examRepository) CreateAttempt(ctx context.Context, attempt *models.ExamAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *examRepository) UpdateAttempt(ctx context.Context, attempt *models.ExamAttempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *examRepository) AttemptsForSubject(ctx context.Context, subjectID, studentID uint) ([]models.ExamAttempt, error) {
	var attempts []models.ExamAttempt
	if err := r.db.WithContext(ctx).Model(&models.ExamAttempt{}).
		Preload("Exam").
		Joins("JOIN exams ON exams.id = exam_attempts.exam_id").
		Where("exams.subject_id = ?", subjectID).
		Where("exam_attempts.student_id = ?", studentID).
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}
