package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
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

type mockSubmissionService struct {
	lastSubmit dto.SubmitRequest
	response   dto.SubmissionResponse
	err        error
}

func (m *mockSubmissionService) Submit(_ context.Context, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	m.lastSubmit = payload
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockSubmissionService) List(_ context.Context, _ dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.SubmissionResponse{m.response}, nil
}

func (m *mockSubmissionService) Get(_ context.Context, _ uint) (dto.SubmissionResponse, error) {
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockSubmissionService) StudentView(_ context.Context, _, _ uint) (dto.StudentSubmissionResponse, error) {
	if m.err != nil {
		return dto.StudentSubmissionResponse{}, m.err
	}
	return dto.StudentSubmissionResponse{ID: m.response.ID}, nil
}

type mockGradingService struct {
	lastGrade dto.GradeSubmissionRequest
	response  dto.SubmissionResponse
	err       error
}

func (m *mockGradingService) Grade(_ context.Context, _ uint, payload dto.GradeSubmissionRequest, _ service.Actor) (dto.SubmissionResponse, error) {
	m.lastGrade = payload
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockGradingService) SetParticipation(_ context.Context, _ uint, _ dto.ParticipationRequest, _ service.Actor) (dto.SubmissionResponse, error) {
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockGradingService) Finalize(_ context.Context, _ uint, _ service.Actor) (dto.SubmissionResponse, error) {
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockGradingService) SetVisibility(_ context.Context, _ uint, _ bool, _ service.Actor) (dto.SubmissionResponse, error) {
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockGradingService) BulkVisibility(_ context.Context, _ dto.BulkVisibilityRequest, _ service.Actor) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return 2, nil
}

func newSubmissionApp(subs *mockSubmissionService, grading *mockGradingService, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2/submissions", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", role)
		return c.Next()
	})
	handler.NewSubmissionHandler(subs, grading, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestSubmissionHandler_SubmitDefaultsStudentFromToken(t *testing.T) {
	subs := &mockSubmissionService{response: dto.SubmissionResponse{ID: 11}}
	app := newSubmissionApp(subs, &mockGradingService{}, "student")

	payload := map[string]interface{}{"activity_id": 3, "content": "my work"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(7), subs.lastSubmit.StudentID)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(11), response.Data.ID)
}

func TestSubmissionHandler_SubmitIgnoresSpoofedStudentID(t *testing.T) {
	subs := &mockSubmissionService{response: dto.SubmissionResponse{ID: 12}}
	app := newSubmissionApp(subs, &mockGradingService{}, "student")

	payload := map[string]interface{}{"activity_id": 3, "student_id": 42, "content": "my work"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(7), subs.lastSubmit.StudentID)
}

func TestSubmissionHandler_SubmitHonorsInstructorStudentID(t *testing.T) {
	subs := &mockSubmissionService{response: dto.SubmissionResponse{ID: 13}}
	app := newSubmissionApp(subs, &mockGradingService{}, "instructor")

	payload := map[string]interface{}{"activity_id": 3, "student_id": 42, "content": "recovered work"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(42), subs.lastSubmit.StudentID)
}

func TestSubmissionHandler_GradeSuccess(t *testing.T) {
	grading := &mockGradingService{response: dto.SubmissionResponse{ID: 11}}
	app := newSubmissionApp(&mockSubmissionService{}, grading, "instructor")

	body, err := json.Marshal(dto.GradeSubmissionRequest{Score: 88, Feedback: "solid work"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v2/submissions/11/grade", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 88.0, grading.lastGrade.Score)
}

func TestSubmissionHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrSubmissionNotFound, statusCode: fiber.StatusNotFound},
		{name: "score exceeds max", err: service.ErrScoreExceedsMax, statusCode: fiber.StatusBadRequest},
		{name: "not graded", err: service.ErrNotGraded, statusCode: fiber.StatusConflict},
		{name: "peer review pending", err: service.ErrPeerReviewPending, statusCode: fiber.StatusConflict},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSubmissionApp(&mockSubmissionService{}, &mockGradingService{err: tc.err}, "instructor")

			body, err := json.Marshal(dto.GradeSubmissionRequest{Score: 50})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPatch, "/api/v2/submissions/11/grade", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestSubmissionHandler_InvalidIdentifier(t *testing.T) {
	app := newSubmissionApp(&mockSubmissionService{}, &mockGradingService{}, "instructor")

	req := httptest.NewRequest(http.MethodPost, "/api/v2/submissions/abc/finalize", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}
