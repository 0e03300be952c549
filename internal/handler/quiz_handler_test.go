package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aralhq/aral-go-api/internal/dto"
	"github.com/aralhq/aral-go-api/internal/handler"
	"github.com/aralhq/aral-go-api/internal/service"
)

type mockQuizService struct {
	lastImport []byte
	response   dto.QuizResponse
	attempt    dto.AttemptResponse
	err        error
}

func (m *mockQuizService) Create(_ context.Context, _ dto.QuizCreateRequest, _ service.Actor) (dto.QuizResponse, error) {
	if m.err != nil {
		return dto.QuizResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockQuizService) Get(_ context.Context, _ uint, _ bool) (dto.QuizResponse, error) {
	if m.err != nil {
		return dto.QuizResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockQuizService) ListBySession(_ context.Context, _ uint, _ bool) ([]dto.QuizResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.QuizResponse{m.response}, nil
}

func (m *mockQuizService) ImportQuestions(_ context.Context, _ uint, raw []byte, _ service.Actor) (dto.QuizResponse, error) {
	m.lastImport = raw
	if m.err != nil {
		return dto.QuizResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockQuizService) StartAttempt(_ context.Context, _, _ uint) (dto.AttemptResponse, error) {
	if m.err != nil {
		return dto.AttemptResponse{}, m.err
	}
	return m.attempt, nil
}

func (m *mockQuizService) SubmitAttempt(_ context.Context, _ uint, _ dto.AttemptSubmitRequest) (dto.AttemptResponse, error) {
	if m.err != nil {
		return dto.AttemptResponse{}, m.err
	}
	return m.attempt, nil
}

func (m *mockQuizService) SetAttemptVisibility(_ context.Context, _ uint, _ bool, _ service.Actor) (dto.AttemptResponse, error) {
	if m.err != nil {
		return dto.AttemptResponse{}, m.err
	}
	return m.attempt, nil
}

func newQuizApp(svc *mockQuizService, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2/quizzes", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", role)
		return c.Next()
	})
	handler.NewQuizHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestQuizHandler_ImportForwardsRawBody(t *testing.T) {
	svc := &mockQuizService{response: dto.QuizResponse{ID: 5}}
	app := newQuizApp(svc, "instructor")

	body := []byte(`[{"question_text":"2+2?","question_type":"fill_blank","correct_answer":"4","points":5}]`)
	req := httptest.NewRequest(http.MethodPost, "/api/v2/quizzes/5/questions/import", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, string(body), string(svc.lastImport))
}

func TestQuizHandler_ImportRejectedForStudents(t *testing.T) {
	app := newQuizApp(&mockQuizService{}, "student")

	req := httptest.NewRequest(http.MethodPost, "/api/v2/quizzes/5/questions/import", bytes.NewReader([]byte("[]")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestQuizHandler_AttemptErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "already submitted", err: service.ErrAttemptAlreadySubmitted, statusCode: fiber.StatusConflict},
		{name: "time limit", err: service.ErrTimeLimitExceeded, statusCode: fiber.StatusConflict},
		{name: "attempt missing", err: service.ErrAttemptNotFound, statusCode: fiber.StatusNotFound},
		{name: "invalid bank", err: service.ErrInvalidQuestionBank, statusCode: fiber.StatusUnprocessableEntity},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newQuizApp(&mockQuizService{err: tc.err}, "student")

			req := httptest.NewRequest(http.MethodPost, "/api/v2/quizzes/attempts/9/submit", bytes.NewReader([]byte(`{"answers":{"1":"A"}}`)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
