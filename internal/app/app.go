package app

import (
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/controller"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/service"
	"campuswell_backend/pkg/database"
	"campuswell_backend/pkg/logger"
	"campuswell_backend/pkg/monitoring"
	"campuswell_backend/pkg/security"
	"campuswell_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user       *repository.UserRepository
	student    *repository.StudentRepository
	analysis   *repository.AnalysisRepository
	risk       *repository.RiskRepository
	temporal   *repository.TemporalRepository
	alert      *repository.AlertRepository
	assessment *repository.AssessmentRepository
	outcome    *repository.OutcomeRepository
	crisis     *repository.CrisisRepository
	feedback   *repository.FeedbackRepository
	voiceNote  *repository.VoiceNoteRepository
}

type services struct {
	auth       *service.AuthService
	llm        *service.LLMService
	calculator *service.RiskCalculator
	processor  *service.SequentialProcessor
	temporal   *service.TemporalService
	alerts     *service.AlertService
	crisis     *service.CrisisService
	messages   *service.MessageService
	outcomes   *service.OutcomeService
	assessment *service.AssessmentService
	students   *service.StudentService
	feedback   *service.FeedbackService
	analytics  *service.AnalyticsService
	journal    *service.JournalService
	storage    service.StorageProvider
	media      *service.MediaService
}

type controllers struct {
	auth       *controller.AuthController
	message    *controller.MessageController
	assessment *controller.AssessmentController
	student    *controller.StudentController
	alert      *controller.AlertController
	temporal   *controller.TemporalController
	analytics  *controller.AnalyticsController
	journal    *controller.JournalController
	admin      *controller.AdminController
	media      *controller.MediaController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		student:    repository.NewStudentRepository(db),
		analysis:   repository.NewAnalysisRepository(db),
		risk:       repository.NewRiskRepository(db),
		temporal:   repository.NewTemporalRepository(db),
		alert:      repository.NewAlertRepository(db),
		assessment: repository.NewAssessmentRepository(db),
		outcome:    repository.NewOutcomeRepository(db),
		crisis:     repository.NewCrisisRepository(db),
		feedback:   repository.NewFeedbackRepository(db),
		voiceNote:  repository.NewVoiceNoteRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.llm = service.NewLLMService(cfg.LLM)
	s.auth = service.NewAuthService(repos.user, repos.student, cfg)

	s.calculator = service.NewRiskCalculator(repos.student, repos.assessment, repos.temporal, repos.risk, cfg.Risk)
	s.processor = service.NewSequentialProcessor(s.llm, repos.student, repos.analysis, s.calculator, cfg.Risk)
	s.temporal = service.NewTemporalService(repos.risk, repos.analysis, repos.temporal, cfg.Risk)
	s.alerts = service.NewAlertService(repos.alert, repos.student, repos.risk, repos.analysis, repos.temporal, repos.assessment, repos.outcome)
	s.crisis = service.NewCrisisService(repos.crisis, repos.analysis, repos.risk, repos.assessment, repos.temporal, repos.student, s.llm)
	s.messages = service.NewMessageService(s.processor, s.temporal, s.alerts, s.crisis)

	s.outcomes = service.NewOutcomeService(db, rdb, repos.alert, repos.outcome, cfg.Outcome)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.risk)
	s.students = service.NewStudentService(repos.student, repos.risk, repos.analysis, repos.temporal)
	s.feedback = service.NewFeedbackService(repos.feedback, repos.alert)
	s.analytics = service.NewAnalyticsService(repos.risk, repos.alert, repos.student, repos.analysis, repos.assessment, repos.crisis, s.outcomes, s.feedback)
	s.journal = service.NewJournalService(s.llm)

	storage, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	s.storage = storage
	s.media = service.NewMediaService(repos.voiceNote, storage, s.messages)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		message:    controller.NewMessageController(s.messages, s.students),
		assessment: controller.NewAssessmentController(s.assessment, s.students),
		student:    controller.NewStudentController(s.students),
		alert:      controller.NewAlertController(s.alerts, s.feedback),
		temporal:   controller.NewTemporalController(s.temporal),
		analytics:  controller.NewAnalyticsController(s.analytics, s.outcomes, s.crisis),
		journal:    controller.NewJournalController(s.journal, s.students),
		admin:      controller.NewAdminController(s.outcomes, s.analytics),
		media:      controller.NewMediaController(s.media, s.students),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the periodic outcome sweep. The redis
// run-lock inside the sweep keeps multi-instance deployments from
// double-running the batch.
func (a *App) startBackgroundTasks(s *services) {
	if !a.Config.Outcome.Enabled {
		logger.Log.Info("Outcome sweep scheduler disabled by config")
		return
	}

	interval := time.Duration(a.Config.Outcome.RunIntervalHours) * time.Hour
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			if _, err := s.outcomes.RunSweep(ctx); err != nil {
				logger.Log.Error("Scheduled outcome sweep failed", zap.Error(err))
			}
			cancel()
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("campuswell-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

// ReloadTuning applies hot-reloadable sections from a re-read config
// file. Only the risk and outcome tuning are applied; server,
// database, and transport settings require a restart.
func (a *App) ReloadTuning(cfg *config.Config) {
	if a.services == nil {
		return
	}
	a.services.calculator.SetTuning(cfg.Risk)
	a.services.processor.SetTuning(cfg.Risk)
	a.services.temporal.SetTuning(cfg.Risk)
	a.services.outcomes.SetTuning(cfg.Outcome)
	a.Config.Risk = cfg.Risk
	a.Config.Outcome = cfg.Outcome
	logger.Log.Info("Hot-reloaded risk and outcome tuning")
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
