package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusgrid/school-portal-api/api/swagger"
	"github.com/campusgrid/school-portal-api/internal/handler"
	"github.com/campusgrid/school-portal-api/internal/middleware"
	"github.com/campusgrid/school-portal-api/internal/models"
	"github.com/campusgrid/school-portal-api/internal/repository"
	"github.com/campusgrid/school-portal-api/internal/service"
	"github.com/campusgrid/school-portal-api/pkg/cache"
	"github.com/campusgrid/school-portal-api/pkg/config"
	"github.com/campusgrid/school-portal-api/pkg/database"
	"github.com/campusgrid/school-portal-api/pkg/logger"
	corsmiddleware "github.com/campusgrid/school-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusgrid/school-portal-api/pkg/middleware/requestid"
)

// @title School Portal API
// @version 1.0.0
// @description Teacher assignment resolution and bulk grade/attendance recording
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, assignment cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	grantRepo := repository.NewTeacherSubjectGrantRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(cfg.JWT)
	assignmentSvc := service.NewAssignmentService(grantRepo, subjectRepo, classRepo, cacheRepo, cfg.Assignments.CacheTTL, metricsSvc, logr)
	gradeSvc := service.NewGradeService(assignmentSvc, subjectRepo, studentRepo, gradeRepo, validate, metricsSvc, logr)
	attendanceSvc := service.NewAttendanceService(assignmentSvc, attendanceRepo, classRepo, studentRepo, validate, metricsSvc, logr)

	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/teachers/me/assignments",
			middleware.RequireRoles(models.RoleTeacher),
			assignmentHandler.Me)

		api.POST("/grades/bulk",
			middleware.RequireRoles(models.RoleTeacher),
			gradeHandler.Bulk)
		api.GET("/grades",
			middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleHR),
			gradeHandler.List)

		api.POST("/attendance/bulk",
			middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleHR),
			attendanceHandler.Bulk)
		api.GET("/attendance",
			middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleHR),
			attendanceHandler.List)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
