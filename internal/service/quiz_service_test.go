package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/models"
)

type fakeQuizRepo struct {
	quizzes         map[uint]models.Quiz
	attempts        map[uint]models.QuizAttempt
	nextID          uint
	subjectAttempts []models.QuizAttempt
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{
		quizzes:  make(map[uint]models.Quiz),
		attempts: make(map[uint]models.QuizAttempt),
		nextID:   1,
	}
}

func (f *fakeQuizRepo) ListBySession(ctx context.Context, sessionID uint) ([]models.Quiz, error) {
	var out []models.Quiz
	for _, quiz := range f.quizzes {
		if quiz.SessionID == sessionID {
			out = append(out, quiz)
		}
	}
	return out, nil
}

func (f *fakeQuizRepo) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	quiz, ok := f.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (f *fakeQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == 0 {
		quiz.ID = uint(len(f.quizzes) + 1)
	}
	f.quizzes[quiz.ID] = *quiz
	return nil
}

func (f *fakeQuizRepo) Update(ctx context.Context, quiz *models.Quiz) error {
	f.quizzes[quiz.ID] = *quiz
	return nil
}

func (f *fakeQuizRepo) AddQuestions(ctx context.Context, quizID uint, questions []models.QuizQuestion) error {
	quiz := f.quizzes[quizID]
	base := len(quiz.Questions)
	for i := range questions {
		questions[i].ID = uint(base + i + 1)
		questions[i].QuizID = quizID
		questions[i].Position = base + i + 1
	}
	quiz.Questions = append(quiz.Questions, questions...)
	f.quizzes[quizID] = quiz
	return nil
}

func (f *fakeQuizRepo) GetAttempt(ctx context.Context, id uint) (models.QuizAttempt, error) {
	attempt, ok := f.attempts[id]
	if !ok {
		return models.QuizAttempt{}, gorm.ErrRecordNotFound
	}
	attempt.Quiz = f.quizzes[attempt.QuizID]
	return attempt, nil
}

func (f *fakeQuizRepo) FindOpenAttempt(ctx context.Context, quizID, studentID uint) (models.QuizAttempt, error) {
	for _, attempt := range f.attempts {
		if attempt.QuizID == quizID && attempt.StudentID == studentID && attempt.SubmittedAt == nil {
			return attempt, nil
		}
	}
	return models.QuizAttempt{}, gorm.ErrRecordNotFound
}

func (f *fakeQuizRepo) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	attempt.ID = f.nextID
	f.nextID++
	f.attempts[attempt.ID] = *attempt
	return nil
}

func (f *fakeQuizRepo) UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	f.attempts[attempt.ID] = *attempt
	return nil
}

func (f *fakeQuizRepo) AttemptsForSubject(ctx context.Context, subjectID, studentID uint) ([]models.QuizAttempt, error) {
	return f.subjectAttempts, nil
}

func storedQuiz(repo *fakeQuizRepo, timeLimit int) models.Quiz {
	quiz := models.Quiz{
		ID:        1,
		SessionID: 1,
		Title:     "Unit 1 Quiz",
		TimeLimit: timeLimit,
		Questions: []models.QuizQuestion{
			{ID: 1, QuizID: 1, Position: 1, QuestionType: models.QuestionTypeMultipleChoice, CorrectAnswer: "B", Points: 5},
			{ID: 2, QuizID: 1, Position: 2, QuestionType: models.QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 5},
		},
	}
	repo.quizzes[quiz.ID] = quiz
	return quiz
}

func newQuizService(repo *fakeQuizRepo, at time.Time) QuizService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewQuizService(repo, validate, nil, nil, testLogger(), 30*time.Second)
	svc.(*quizService).now = func() time.Time { return at }
	return svc
}

func TestStartAttemptReusesOpenAttempt(t *testing.T) {
	repo := newFakeQuizRepo()
	storedQuiz(repo, 0)
	svc := newQuizService(repo, time.Now())

	first, err := svc.StartAttempt(context.Background(), 1, 7)
	require.NoError(t, err)

	second, err := svc.StartAttempt(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.StartedAt, second.StartedAt)
	require.Len(t, repo.attempts, 1)
}

func TestSubmitAttemptGradesPercentage(t *testing.T) {
	repo := newFakeQuizRepo()
	storedQuiz(repo, 0)
	svc := newQuizService(repo, time.Now())

	attempt, err := svc.StartAttempt(context.Background(), 1, 7)
	require.NoError(t, err)

	result, err := svc.SubmitAttempt(context.Background(), attempt.ID, dto.AttemptSubmitRequest{
		Answers: map[uint]string{1: "b", 2: "false"},
	})
	require.NoError(t, err)
	require.NotNil(t, repo.attempts[attempt.ID].Score)
	require.InDelta(t, 50.0, *repo.attempts[attempt.ID].Score, 1e-9)
	require.Equal(t, 10.0, result.TotalPossible)
	require.Equal(t, []uint{2}, result.MissedQuestionIDs)
	// unreleased score is reported as pending, not as a value
	require.Nil(t, result.Score)
	require.True(t, result.Pending)
}

func TestSubmitAttemptWithinTimeLimit(t *testing.T) {
	repo := newFakeQuizRepo()
	storedQuiz(repo, 10)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newQuizService(repo, start)

	attempt, err := svc.StartAttempt(context.Background(), 1, 7)
	require.NoError(t, err)

	svc.(*quizService).now = func() time.Time { return start.Add(10*time.Minute + 20*time.Second) }
	_, err = svc.SubmitAttempt(context.Background(), attempt.ID, dto.AttemptSubmitRequest{
		Answers: map[uint]string{1: "B", 2: "true"},
	})
	require.NoError(t, err)
}

func TestSubmitAttemptPastTimeLimit(t *testing.T) {
	repo := newFakeQuizRepo()
	storedQuiz(repo, 10)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newQuizService(repo, start)

	attempt, err := svc.StartAttempt(context.Background(), 1, 7)
	require.NoError(t, err)

	svc.(*quizService).now = func() time.Time { return start.Add(11 * time.Minute) }
	_, err = svc.SubmitAttempt(context.Background(), attempt.ID, dto.AttemptSubmitRequest{
		Answers: map[uint]string{1: "B", 2: "true"},
	})
	require.ErrorIs(t, err, ErrTimeLimitExceeded)
	require.Nil(t, repo.attempts[attempt.ID].SubmittedAt)
}

func TestSubmitAttemptTwice(t *testing.T) {
	repo := newFakeQuizRepo()
	storedQuiz(repo, 0)
	svc := newQuizService(repo, time.Now())

	attempt, err := svc.StartAttempt(context.Background(), 1, 7)
	require.NoError(t, err)

	payload := dto.AttemptSubmitRequest{Answers: map[uint]string{1: "B", 2: "true"}}
	_, err = svc.SubmitAttempt(context.Background(), attempt.ID, payload)
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(context.Background(), attempt.ID, payload)
	require.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestImportQuestionsValidPayload(t *testing.T) {
	repo := newFakeQuizRepo()
	repo.quizzes[1] = models.Quiz{ID: 1, SessionID: 1, Title: "Empty Quiz"}
	svc := newQuizService(repo, time.Now())

	raw := []byte(`[
		{"question_text": "Pick one", "question_type": "multiple_choice", "options": ["A", "B"], "correct_answer": "A", "points": 5},
		{"question_text": "True or false", "question_type": "true_false", "correct_answer": "true", "points": 2}
	]`)
	result, err := svc.ImportQuestions(context.Background(), 1, raw, Actor{ID: 99, Role: "instructor"})
	require.NoError(t, err)
	require.Len(t, result.Questions, 2)
	require.Equal(t, 1, result.Questions[0].Position)
	require.Equal(t, []string{"A", "B"}, result.Questions[0].Options)
}

func TestImportQuestionsRejectsBadSchema(t *testing.T) {
	repo := newFakeQuizRepo()
	repo.quizzes[1] = models.Quiz{ID: 1, SessionID: 1, Title: "Empty Quiz"}
	svc := newQuizService(repo, time.Now())

	cases := map[string]string{
		"not an array": `{"question_text": "x"}`,
		"empty array":  `[]`,
		"bad type":     `[{"question_text": "Pick", "question_type": "essay", "correct_answer": "A", "points": 5}]`,
		"missing key":  `[{"question_text": "Pick", "question_type": "multiple_choice", "points": 5}]`,
		"zero points":  `[{"question_text": "Pick", "question_type": "multiple_choice", "correct_answer": "A", "points": 0}]`,
		"malformed":    `[{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ImportQuestions(context.Background(), 1, []byte(raw), Actor{ID: 99, Role: "instructor"})
			require.ErrorIs(t, err, ErrInvalidQuestionBank)
			require.Empty(t, repo.quizzes[1].Questions)
		})
	}
}

func TestSetAttemptVisibilityReleasesScore(t *testing.T) {
	repo := newFakeQuizRepo()
	storedQuiz(repo, 0)
	svc := newQuizService(repo, time.Now())

	attempt, err := svc.StartAttempt(context.Background(), 1, 7)
	require.NoError(t, err)
	_, err = svc.SubmitAttempt(context.Background(), attempt.ID, dto.AttemptSubmitRequest{
		Answers: map[uint]string{1: "B", 2: "true"},
	})
	require.NoError(t, err)

	cache := &fakeInvalidator{}
	svc.(*quizService).cache = cache
	result, err := svc.SetAttemptVisibility(context.Background(), attempt.ID, true, Actor{ID: 99, Role: "instructor"})
	require.NoError(t, err)
	require.NotNil(t, result.Score)
	require.InDelta(t, 100.0, *result.Score, 1e-9)
	require.False(t, result.Pending)
	require.Equal(t, []uint{7}, cache.studentIDs)
}
