package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/repository"
)

func gradeTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{}, &models.Subject{}, &models.Enrollment{}, &models.Session{},
		&models.Activity{}, &models.PeerReviewCriterion{}, &models.Submission{}, &models.SubmissionFile{},
		&models.Quiz{}, &models.QuizQuestion{}, &models.QuizAttempt{},
		&models.Exam{}, &models.ExamQuestion{}, &models.ExamAttempt{},
	))
	return db
}

func seedGradeData(t *testing.T, db *gorm.DB) (studentID, subjectID uint) {
	t.Helper()
	student := models.Student{Name: "Maria Santos", Email: "maria@example.com"}
	require.NoError(t, db.Create(&student).Error)

	subject := models.Subject{Code: "COMP010", Name: "Software Engineering", Section: "3-1"}
	require.NoError(t, db.Create(&subject).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: student.ID, SubjectID: subject.ID}).Error)

	session := models.Session{SubjectID: subject.ID, SessionNumber: 1, Title: "Week 1"}
	require.NoError(t, db.Create(&session).Error)

	quiz := models.Quiz{SessionID: session.ID, Title: "Quiz 1"}
	require.NoError(t, db.Create(&quiz).Error)
	submitted := time.Now().Add(-time.Hour)
	score := 80.0
	require.NoError(t, db.Create(&models.QuizAttempt{
		QuizID:       quiz.ID,
		StudentID:    student.ID,
		StartedAt:    submitted.Add(-10 * time.Minute),
		SubmittedAt:  &submitted,
		Score:        &score,
		ScoreVisible: true,
	}).Error)

	activity := models.Activity{SessionID: session.ID, ActivityNumber: 1, Title: "Lab 1", Points: 100, IsActive: true, InstructorWeight: 1}
	require.NoError(t, db.Create(&activity).Error)
	final := 90.0
	require.NoError(t, db.Create(&models.Submission{
		ActivityID:   activity.ID,
		StudentID:    student.ID,
		SubmittedAt:  submitted,
		Score:        &final,
		FinalScore:   &final,
		ScoreVisible: true,
		Status:       models.SubmissionStatusFinalized,
	}).Error)

	exam := models.Exam{SubjectID: subject.ID, ExamType: models.ExamTypeMidterm, Title: "Midterm", TotalPoints: 100}
	require.NoError(t, db.Create(&exam).Error)
	midterm := 70.0
	require.NoError(t, db.Create(&models.ExamAttempt{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		StartedAt:   submitted.Add(-time.Hour),
		SubmittedAt: &submitted,
		Score:       &midterm,
	}).Error)

	return student.ID, subject.ID
}

func newGradeSummaryService(db *gorm.DB, cache *redis.Client) GradeSummaryService {
	return NewGradeSummaryService(
		repository.NewStudentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewQuizRepository(db),
		repository.NewExamRepository(db),
		cache,
		time.Minute,
		testLogger(),
	)
}

func TestGradeSummaryAggregation(t *testing.T) {
	db := gradeTestDB(t, "grade_summary_aggregation")
	studentID, _ := seedGradeData(t, db)
	svc := newGradeSummaryService(db, nil)

	report, err := svc.Summary(context.Background(), studentID)
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)

	subject := report.Subjects[0]
	require.Equal(t, "COMP010", subject.SubjectCode)
	require.Len(t, subject.QuizScores, 1)
	require.InDelta(t, 80.0, subject.QuizAverage, 1e-9)
	require.Len(t, subject.ActivityScores, 1)
	require.InDelta(t, 90.0, subject.ActivityAverage, 1e-9)

	// midterm exists but is unreleased
	require.Nil(t, subject.Midterm)
	require.True(t, subject.MidtermPending)
	require.Nil(t, subject.Final)
	require.False(t, subject.FinalPending)

	// 80*0.20 + 90*0.40 + 0*0.20 + 0*0.20
	require.InDelta(t, 52.0, subject.WeightedTotal, 1e-9)
	require.Equal(t, 5.00, subject.PUPGrade)
}

func TestGradeSummaryReleasedMidterm(t *testing.T) {
	db := gradeTestDB(t, "grade_summary_midterm")
	studentID, _ := seedGradeData(t, db)
	require.NoError(t, db.Model(&models.ExamAttempt{}).Where("student_id = ?", studentID).Update("score_visible", true).Error)
	svc := newGradeSummaryService(db, nil)

	report, err := svc.Summary(context.Background(), studentID)
	require.NoError(t, err)
	subject := report.Subjects[0]
	require.NotNil(t, subject.Midterm)
	require.InDelta(t, 70.0, *subject.Midterm, 1e-9)
	require.False(t, subject.MidtermPending)
	require.InDelta(t, 66.0, subject.WeightedTotal, 1e-9)
}

func TestGradeSummaryFinalProjectWeighting(t *testing.T) {
	db := gradeTestDB(t, "grade_summary_final_project")

	student := models.Student{Name: "Juan Reyes", Email: "juan@example.com"}
	require.NoError(t, db.Create(&student).Error)
	subject := models.Subject{Code: "COMP012", Name: "Network Administration", Section: "3-1"}
	require.NoError(t, db.Create(&subject).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: student.ID, SubjectID: subject.ID}).Error)

	exam := models.Exam{SubjectID: subject.ID, ExamType: models.ExamTypeFinal, Title: "Final", TotalPoints: 100}
	require.NoError(t, db.Create(&exam).Error)
	submitted := time.Now().Add(-time.Hour)
	score := 100.0
	require.NoError(t, db.Create(&models.ExamAttempt{
		ExamID:       exam.ID,
		StudentID:    student.ID,
		StartedAt:    submitted.Add(-time.Hour),
		SubmittedAt:  &submitted,
		Score:        &score,
		ScoreVisible: true,
	}).Error)

	svc := newGradeSummaryService(db, nil)
	report, err := svc.Summary(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)

	result := report.Subjects[0]
	require.NotNil(t, result.Final)
	require.InDelta(t, 100.0, *result.Final, 1e-9)

	// the final exam score carries both the final and final-project weights
	// 100*0.15 + 100*0.35
	require.InDelta(t, 50.0, result.WeightedTotal, 1e-9)
}

func TestGradeSummaryCaching(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := gradeTestDB(t, "grade_summary_caching")
	studentID, _ := seedGradeData(t, db)
	svc := newGradeSummaryService(db, cache)

	first, err := svc.Summary(context.Background(), studentID)
	require.NoError(t, err)

	// a later score change is not reflected until the cache is dropped
	require.NoError(t, db.Model(&models.QuizAttempt{}).Where("student_id = ?", studentID).Update("score", 100.0).Error)

	cached, err := svc.Summary(context.Background(), studentID)
	require.NoError(t, err)
	require.Equal(t, first.Subjects[0].QuizAverage, cached.Subjects[0].QuizAverage)

	svc.Invalidate(context.Background(), studentID)
	fresh, err := svc.Summary(context.Background(), studentID)
	require.NoError(t, err)
	require.InDelta(t, 100.0, fresh.Subjects[0].QuizAverage, 1e-9)
}

func TestGradeSummaryUnknownStudent(t *testing.T) {
	db := gradeTestDB(t, "grade_summary_unknown")
	svc := newGradeSummaryService(db, nil)

	_, err := svc.Summary(context.Background(), 999)
	require.ErrorIs(t, err, ErrStudentNotFound)
}
