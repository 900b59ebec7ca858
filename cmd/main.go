package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codegram-backend/config"
	"codegram-backend/internal/authstate"
	"codegram-backend/internal/cache"
	httpDelivery "codegram-backend/internal/delivery/http"
	"codegram-backend/internal/domain"
	"codegram-backend/internal/mailer"
	"codegram-backend/internal/oauth"
	"codegram-backend/internal/repository"
	"codegram-backend/internal/usecase"
	"codegram-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

func main() {
	cfg := config.Load()

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer appLog.Sync()

	production := isProduction(cfg.Env)
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to databases
	db, err := config.ConnectDB(cfg, appLog)
	if err != nil {
		appLog.Fatal("Database connection failed", "error", err)
	}
	defer db.Close(context.Background())

	if err := config.AutoMigrate(db.PG); err != nil {
		appLog.Fatal("Migration failed", "error", err)
	}
	if err := repository.EnsureIndexes(ctx, db.Mongo); err != nil {
		appLog.Fatal("Index creation failed", "error", err)
	}

	// Author cache: Redis when configured, in-process otherwise
	var authors cache.AuthorCache = cache.NewMemory(cfg.AuthorCacheTTL)
	rdb, err := config.ConnectRedis(cfg)
	switch {
	case err != nil:
		appLog.Warn("Redis unavailable, using in-memory author cache", "error", err)
	case rdb != nil:
		defer rdb.Close()
		authors = cache.NewRedis(rdb, cfg.AuthorCacheTTL, appLog)
		appLog.Info("Using Redis author cache", "addr", cfg.RedisAddr)
	}

	// Initialize repositories
	courseRepo := repository.NewCourseRepository(db.Mongo)
	moduleRepo := repository.NewModuleRepository(db.Mongo)
	lessonRepo := repository.NewLessonRepository(db.Mongo)
	quizRepo := repository.NewQuizRepository(db.Mongo)
	userRepo := repository.NewUserRepository(db.Mongo)
	enrollmentRepo := repository.NewEnrollmentRepository(db.Mongo)
	completedRepo := repository.NewCompletedLessonRepository(db.Mongo)
	resultRepo := repository.NewQuizResultRepository(db.Mongo)
	accountRepo := repository.NewAccountRepository(db.PG)
	files, err := repository.NewGridFSRepository(db.Mongo)
	if err != nil {
		appLog.Fatal("GridFS init failed", "error", err)
	}

	broker := authstate.NewBroker(appLog)
	google := oauth.NewGoogleAuthenticator(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	// Initialize usecases
	courseUsecase := usecase.NewCourseUsecase(courseRepo, moduleRepo, lessonRepo, userRepo, authors, appLog)
	enrollmentUsecase := usecase.NewEnrollmentUsecase(enrollmentRepo, completedRepo, resultRepo, courseRepo, moduleRepo, lessonRepo, courseUsecase, appLog)
	quizUsecase := usecase.NewQuizUsecase(quizRepo, courseRepo, resultRepo, enrollmentRepo, enrollmentUsecase, appLog)
	profileUsecase := usecase.NewProfileUsecase(userRepo, courseRepo, files, authors, appLog)
	authUsecase := usecase.NewAuthUsecase(accountRepo, userRepo, google, newMailer(cfg, production, appLog), broker, usecase.AuthConfig{
		JWTSecret:         cfg.JWTSecret,
		SessionTTL:        cfg.SessionTTL,
		DurableSessionTTL: cfg.DurableSessionTTL,
		PasswordResetURL:  cfg.PasswordResetURL,
	}, appLog)

	if !production {
		seedUsers(ctx, authUsecase, appLog)
	}

	// Initialize handlers
	oauthStore := sessions.NewCookieStore([]byte(cfg.SessionKey))
	apiHandler := httpDelivery.NewHandler(authUsecase, profileUsecase, courseUsecase, enrollmentUsecase, quizUsecase,
		broker, oauthStore, httpDelivery.HandlerOptions{
			JWTSecret:     cfg.JWTSecret,
			SecureCookies: production,
			FrontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
		}, appLog)
	fileHandler := httpDelivery.NewFileHandler(files, profileUsecase, appLog)
	webHandler := httpDelivery.NewWebHandler(profileUsecase, courseUsecase, enrollmentUsecase)

	// Initialize router with both API and page routes
	router := httpDelivery.InitRouter(apiHandler, fileHandler, cfg.RequestTimeout, appLog)
	httpDelivery.InitWebRouter(router, webHandler, cfg.JWTSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLog.Info("Server running", "port", cfg.Port, "api", "/api/v1")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Graceful shutdown failed", "error", err)
	}
}

// newMailer prefers SendGrid; without an API key mail is only logged.
func newMailer(cfg *config.Config, production bool, log *logger.Logger) domain.Mailer {
	if cfg.SendGridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY not set, outgoing mail will not be delivered")
		return mailer.NewLogMailer(log, !production)
	}
	sg, err := mailer.NewSendGrid(mailer.SendGridConfig{
		APIKey:     cfg.SendGridAPIKey,
		BaseURL:    cfg.SendGridBaseURL,
		FromEmail:  cfg.SendGridFromEmail,
		FromName:   cfg.SendGridFromName,
		Timeout:    cfg.SendGridTimeout,
		MaxRetries: cfg.SendGridMaxRetries,
	}, log)
	if err != nil {
		log.Fatal("SendGrid init failed", "error", err)
	}
	return sg
}

func isProduction(env string) bool {
	switch strings.ToLower(env) {
	case "prod", "production", "release":
		return true
	}
	return false
}

// seedUsers creates a demo account for local development.
func seedUsers(ctx context.Context, authUsecase domain.AuthUsecase, log *logger.Logger) {
	_, err := authUsecase.RegisterWithEmail(ctx, "student@codegram.dev", "password123", "demo-student")
	if err != nil && !errors.Is(err, domain.ErrEmailTaken) && !errors.Is(err, domain.ErrUsernameTaken) {
		log.Warn("Failed to seed demo user", "error", err)
	}
}
