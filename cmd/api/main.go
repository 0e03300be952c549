package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aralhq/aral-go-api/internal/config"
	"github.com/aralhq/aral-go-api/internal/database"
	"github.com/aralhq/aral-go-api/internal/handler"
	"github.com/aralhq/aral-go-api/internal/middleware"
	"github.com/aralhq/aral-go-api/internal/models"
	"github.com/aralhq/aral-go-api/internal/repository"
	"github.com/aralhq/aral-go-api/internal/router"
	"github.com/aralhq/aral-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{}, &models.Enrollment{}, &models.Subject{}, &models.Session{},
		&models.Activity{}, &models.PeerReviewCriterion{}, &models.Submission{}, &models.SubmissionFile{},
		&models.PeerReviewAssignment{}, &models.PeerReviewResponse{},
		&models.Quiz{}, &models.QuizQuestion{}, &models.QuizAttempt{},
		&models.Exam{}, &models.ExamQuestion{}, &models.ExamAttempt{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	peerReviewRepo := repository.NewPeerReviewRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	examRepo := repository.NewExamRepository(db)
	auditRepo := repository.NewActivityLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	gradeSummaryService := service.NewGradeSummaryService(studentRepo, submissionRepo, quizRepo, examRepo, redisClient, cfg.GradeCacheTTL, logger)
	activityService := service.NewActivityAdminService(activityRepo, validate, auditService, service.ActivityDefaults{
		DueTime:   cfg.DefaultDueTime,
		Reviewers: cfg.DefaultReviewers,
	}, logger)
	submissionService := service.NewSubmissionService(submissionRepo, activityRepo, validate, logger)
	peerReviewService := service.NewPeerReviewService(peerReviewRepo, submissionRepo, activityRepo, validate, auditService, logger, nil)
	gradingService := service.NewGradingService(submissionRepo, peerReviewService, validate, auditService, gradeSummaryService, logger)
	quizService := service.NewQuizService(quizRepo, validate, auditService, gradeSummaryService, logger, cfg.AttemptGrace)
	examService := service.NewExamService(examRepo, validate, auditService, gradeSummaryService, logger, cfg.AttemptGrace)

	activityHandler := handler.NewActivityHandler(activityService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, gradingService, logger)
	peerReviewHandler := handler.NewPeerReviewHandler(peerReviewService, logger)
	quizHandler := handler.NewQuizHandler(quizService, logger)
	examHandler := handler.NewExamHandler(examService, logger)
	gradeHandler := handler.NewGradeHandler(gradeSummaryService, logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:   activityHandler,
		SubmissionHandler: submissionHandler,
		PeerReviewHandler: peerReviewHandler,
		QuizHandler:       quizHandler,
		ExamHandler:       examHandler,
		GradeHandler:      gradeHandler,
		AuditHandler:      auditHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
