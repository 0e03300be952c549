package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aralhq/aral-go-api/internal/config"
	"github.com/aralhq/aral-go-api/internal/handler"
	"github.com/aralhq/aral-go-api/internal/middleware"
	"github.com/aralhq/aral-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler   *handler.ActivityHandler
	SubmissionHandler *handler.SubmissionHandler
	PeerReviewHandler *handler.PeerReviewHandler
	QuizHandler       *handler.QuizHandler
	ExamHandler       *handler.ExamHandler
	GradeHandler      *handler.GradeHandler
	AuditHandler      *handler.AuditHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	instructor := middleware.RequireRole("instructor", "admin")

	if deps.ActivityHandler != nil {
		activities := app.Group("/api/v2/activities", jwtMiddleware, instructor)
		deps.ActivityHandler.Register(activities)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions", jwtMiddleware, middleware.RateLimit("submissions", 30, time.Minute))
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.PeerReviewHandler != nil {
		peerReviews := app.Group("/api/v2/peer-reviews", jwtMiddleware)
		deps.PeerReviewHandler.Register(peerReviews)
	}

	if deps.QuizHandler != nil {
		quizzes := app.Group("/api/v2/quizzes", jwtMiddleware, middleware.RateLimit("quiz-attempts", 60, time.Minute))
		deps.QuizHandler.Register(quizzes)
	}

	if deps.ExamHandler != nil {
		exams := app.Group("/api/v2/exams", jwtMiddleware, middleware.RateLimit("exam-attempts", 60, time.Minute))
		deps.ExamHandler.Register(exams)
	}

	if deps.GradeHandler != nil {
		grades := app.Group("/api/v2/grades", jwtMiddleware)
		deps.GradeHandler.Register(grades)
	}

	if deps.AuditHandler != nil {
		audit := app.Group("/api/v2/audit", jwtMiddleware, instructor)
		deps.AuditHandler.Register(audit)
	}
}
