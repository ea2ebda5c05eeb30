package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/callreport"
	"github.com/fadilmartias/interview-proctor/internal/config"
	"github.com/fadilmartias/interview-proctor/internal/domain/fiber/handler"
	"github.com/fadilmartias/interview-proctor/internal/metrics"
	"github.com/fadilmartias/interview-proctor/internal/middleware"
	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/fadilmartias/interview-proctor/internal/repository"
	"github.com/fadilmartias/interview-proctor/internal/service"
	"github.com/fadilmartias/interview-proctor/internal/usecase"
	"github.com/fadilmartias/interview-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// recordings are the largest request bodies the API accepts
const bodyLimit = 210 * 1024 * 1024

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	log := appConfig.NewLogger()
	adminConfig := config.LoadAdminConfig()
	voiceConfig := config.LoadVoiceConfig()

	app := fiber.New(fiber.Config{
		AppName:   appConfig.Name,
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    code,
				Message: message,
			}, err)
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(globalRateLimiter())

	app.Static("/uploads", adminConfig.UploadDir)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry(log), promhttp.HandlerOpts{})))

	db := ConnectDB(log)

	candidateRepo := repository.NewCandidateRepository(db)
	logRepo := repository.NewProctorLogRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	gemini, err := service.NewGeminiService(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("Could not create Gemini client")
	}
	publishers, closePublishers, err := service.NewDecisionPublishers(config.LoadNotifyConfig(), log)
	if err != nil {
		log.WithError(err).Fatal("Could not create decision publishers")
	}
	defer closePublishers()
	notifier := service.NewNotifyService(log, publishers...)

	candidateUC := usecase.NewCandidateUsecase(usecase.CandidateDeps{
		Candidates: candidateRepo,
		Logs:       logRepo,
		Roles:      roleRepo,
		Gemini:     gemini,
		Notifier:   notifier,
		UploadDir:  adminConfig.UploadDir,
		BaseURL:    appConfig.BaseURL,
	}, log)
	violationUC := usecase.NewViolationUsecase(candidateRepo, logRepo, log)
	reportUC := usecase.NewCallReportUsecase(candidateRepo, callreport.NewParser(voiceConfig.ReportName), log)

	handler.NewInterviewHandler(candidateUC, violationUC, reportUC, voiceConfig.WebhookSecret).RegisterRoutes(app)
	handler.NewDashboardHandler(candidateUC, adminConfig.Token).RegisterRoutes(app)

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			log.WithField("goroutines", runtime.NumGoroutine()).Debug("Runtime stats")
		}
	}()

	go func() {
		log.WithField("port", appConfig.Port).Info("Server running")
		if err := app.Listen(appConfig.Port); err != nil {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.WithError(err).Error("Shutdown failed")
	}
	// pending decision notifications
	candidateUC.Wait()
}

// globalRateLimiter throttles every route except the provider webhook, whose
// events all arrive from a handful of provider addresses and are
// authenticated by the webhook secret.
func globalRateLimiter() fiber.Handler {
	return middleware.RateLimiter(100, 1*time.Minute, handler.WebhookPath)
}

func ConnectDB(log *logrus.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	pgDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Could not get database instance")
	}
	if !appConfig.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.WithError(err).Fatal("Could not enable pgvector")
	}
	if err := db.AutoMigrate(&model.Candidate{}, &model.ProctorLog{}, &model.InterviewRole{}); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
	return db
}
