package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/scheduler"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"JWT_SECRET_KEY",
		"JWT_EXPIRATION_TIME",
		"REFRESH_TOKEN_EXPIRATION_TIME",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()
	utils.InitJWT()
	utils.InitMongoClient(config.LoadDatabaseConfig().ClientOptions())

	// Token blacklisting is optional; without Redis every token stays
	// valid until expiry.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		blacklist, err := services.NewTokenBlacklist(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		services.TokenBlacklist = blacklist
	}
}

func setupRouter(userRepo *repository.UserRepo, sessionRepo *repository.SessionRepo,
	notesService *usecase.NotesService, sched *scheduler.Scheduler, verifier services.Verifier) *gin.Engine {

	router := gin.Default()

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := utils.MongoClient.Ping(ctx, readpref.Primary()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", func(c *gin.Context) {
				handler.RegistrationHandler(c, userRepo)
			})
			auth.POST("/login", func(c *gin.Context) {
				handler.LoginHandler(c, userRepo, sessionRepo)
			})
		}
	}

	// Protected routes (authentication required)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(verifier))
	{
		user := protected.Group("/user")
		{
			user.GET("/profile", func(c *gin.Context) {
				handler.ProfileHandler(c, userRepo)
			})
			user.POST("/logout", func(c *gin.Context) {
				handler.LogoutHandler(c, sessionRepo)
			})
			user.POST("/2fa/enable", func(c *gin.Context) {
				handler.Enable2FAHandler(c, userRepo)
			})
			user.POST("/2fa/verify", func(c *gin.Context) {
				handler.Verify2FAHandler(c, userRepo)
			})
			user.POST("/2fa/disable", func(c *gin.Context) {
				handler.Disable2FAHandler(c, userRepo)
			})
		}

		notes := protected.Group("/notes")
		{
			notes.GET("", func(c *gin.Context) {
				handler.GetUserNotesHandler(c, notesService)
			})
			notes.POST("", func(c *gin.Context) {
				handler.CreateNoteHandler(c, notesService)
			})
			notes.GET("/:id", func(c *gin.Context) {
				handler.GetNoteHandler(c, notesService)
			})
			notes.PUT("/:id", func(c *gin.Context) {
				handler.UpdateNoteHandler(c, notesService)
			})
			notes.DELETE("/:id", func(c *gin.Context) {
				handler.DeleteNoteHandler(c, notesService)
			})
		}

		reminders := protected.Group("/reminders")
		{
			reminders.GET("/upcoming", func(c *gin.Context) {
				handler.UpcomingRemindersHandler(c, notesService)
			})
			reminders.POST("/trigger/:id", func(c *gin.Context) {
				handler.TriggerReminderHandler(c, notesService, sched)
			})
		}
	}

	return router
}

func main() {
	userRepo := repository.GetUserRepo(utils.MongoClient)
	sessionRepo := repository.GetSessionRepo(utils.MongoClient)
	notesRepo := repository.GetNotesRepo(utils.MongoClient)

	verifier := services.NewJWTVerifier(userRepo)
	notesService := &usecase.NotesService{
		Store:    notesRepo,
		Identity: verifier,
	}

	schedCfg := config.LoadSchedulerConfig()
	var schedMailer scheduler.Mailer
	if m := services.NewMailer(config.LoadMailerConfig()); m != nil {
		schedMailer = m
	} else {
		log.Println("Email credentials not set; reminders will not send e-mail")
	}

	sched := scheduler.New(notesRepo, verifier, schedMailer,
		schedCfg.CheckSpec, schedCfg.MaxAttempts, log.Default())
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}

	utils.StartSystemMetrics(30 * time.Second)

	router := setupRouter(userRepo, sessionRepo, notesService, sched, verifier)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	sig := <-signalChan
	log.Printf("Caught signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(),
		utils.GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second))
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	sched.Stop()

	if services.TokenBlacklist != nil {
		services.TokenBlacklist.Close()
	}
	if err := utils.MongoClient.Disconnect(context.Background()); err != nil {
		log.Printf("Mongo disconnect error: %v", err)
	}
	log.Println("Server shutdown complete")
}
