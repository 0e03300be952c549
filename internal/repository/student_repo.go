package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/models"
)

// StudentRepository defines data operations for students and enrollments.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	EnrolledSubjects(ctx context.Context, studentID uint) ([]models.Subject, error)
	Enroll(ctx context.Context, studentID, subjectID uint) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) EnrolledSubjects(ctx context.Context, studentID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.WithContext(ctx).Model(&models.Subject{}).
		Joins("JOIN enrollments ON enrollments.subject_id = subjects.id").
		Where("enrollments.student_id = ?", studentID).
		Order("subjects.code ASC").
		Find(&subjects).Error; err != nil {
		return nil, err
	}

	return subjects, nil
}

func (r *studentRepository) Enroll(ctx context.Context, studentID, subjectID uint) error {
	enrollment := models.Enrollment{StudentID: studentID, SubjectID: subjectID}
	return r.db.WithContext(ctx).Create(&enrollment).Error
}
