package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/models"
)

// QuizRepository defines data operations for quizzes, questions and attempts.
type QuizRepository interface {
	ListBySession(ctx context.Context, sessionID uint) ([]models.Quiz, error)
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	AddQuestions(ctx context.Context, quizID uint, questions []models.QuizQuestion) error
	GetAttempt(ctx context.Context, id uint) (models.QuizAttempt, error)
	FindOpenAttempt(ctx context.Context, quizID, studentID uint) (models.QuizAttempt, error)
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	AttemptsForSubject(ctx context.Context, subjectID, studentID uint) ([]models.QuizAttempt, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates the repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Quiz{}).
		Preload("Session").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *quizRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.baseQuery(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}

	return quizzes, nil
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.baseQuery(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Save(quiz).Error
}

func (r *quizRepository) AddQuestions(ctx context.Context, quizID uint, questions []models.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int64
		if err := tx.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quizID).Count(&next).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = quizID
			questions[i].Position = int(next) + i + 1
		}
		return tx.Create(&questions).Error
	})
}

func (r *quizRepository) attemptQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Preload("Quiz").
		Preload("Quiz.Questions").
		Preload("Student")
}

func (r *quizRepository) GetAttempt(ctx context.Context, id uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.attemptQuery(ctx).First(&attempt, id).Error; err != nil {
		return models.QuizAttempt{}, err
	}

	return attempt, nil
}

func (r *quizRepository) FindOpenAttempt(ctx context.Context, quizID, studentID uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.attemptQuery(ctx).
		Where("quiz_id = ?", quizID).
		Where("student_id = ?", studentID).
		Where("submitted_at IS NULL").
		First(&attempt).Error; err != nil {
		return models.QuizAttempt{}, err
	}

	return attempt, nil
}

func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *quizRepository) UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *quizRepository) AttemptsForSubject(ctx context.Context, subjectID, studentID uint) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Preload("Quiz").
		Preload("Quiz.Session").
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Joins("JOIN sessions ON sessions.id = quizzes.session_id").
		Where("sessions.subject_id = ?", subjectID).
		Where("quiz_attempts.student_id = ?", studentID).
		Order("sessions.session_number ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}
