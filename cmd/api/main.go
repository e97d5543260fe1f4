package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"partymatch/config"
	_ "partymatch/docs"
	"partymatch/internal/adapters/auth"
	"partymatch/internal/adapters/email"
	httpdelivery "partymatch/internal/delivery/http"
	"partymatch/internal/delivery/http/controllers"
	"partymatch/internal/delivery/http/middleware"
	"partymatch/internal/repository/postgres"
	"partymatch/internal/services"
)

const (
	serviceTimeout  = 10 * time.Second
	matchingTimeout = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title PartyMatch API
// @version 1.0
// @description Guest matchmaking for parties: hosts build a survey, guests join with an event code and answer, and the matching engine pairs compatible guests.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	pingCancel()
	if err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	loginCodeRepo := postgres.NewLoginCodeRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	guestRepo := postgres.NewGuestRepository(db)
	questionRepo := postgres.NewQuestionRepository(db)
	responseRepo := postgres.NewResponseRepository(db)
	matchRepo := postgres.NewMatchRepository(db)

	// Adapters
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: email.SESConfig{
			Region:             cfg.Mailer.SESRegion,
			AccessKeyID:        cfg.Mailer.SESAccessKeyID,
			SecretAccessKey:    cfg.Mailer.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Mailer.InsecureSkipVerify,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	// Services
	emailSvc := services.NewEmailService(mailer, email.NewTemplateRenderer())
	userSvc := services.NewUserService(userRepo, loginCodeRepo, hasher, issuer, time.Duration(cfg.TokenExpiryHours)*time.Hour, emailSvc)
	eventSvc := services.NewEventService(eventRepo, guestRepo, questionRepo, responseRepo, matchRepo, serviceTimeout)
	guestSvc := services.NewGuestService(guestRepo, eventRepo, serviceTimeout)
	questionSvc := services.NewQuestionService(questionRepo, eventRepo, serviceTimeout)
	responseSvc := services.NewResponseService(responseRepo, guestRepo, questionRepo, serviceTimeout)
	matchingSvc := services.NewMatchingService(eventRepo, guestRepo, responseRepo, matchRepo,
		services.NewAgreementScorer(), cfg.ResetRevealOnRerun, matchingTimeout)

	// HTTP delivery
	mux := httpdelivery.NewRouter(logger, verifier,
		controllers.NewAuthController(logger, userSvc),
		controllers.NewEventController(logger, eventSvc),
		controllers.NewGuestController(logger, guestSvc),
		controllers.NewQuestionController(logger, questionSvc),
		controllers.NewResponseController(logger, responseSvc),
		controllers.NewMatchController(logger, matchingSvc, eventSvc),
	)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
