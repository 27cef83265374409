package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusworks/registrar-api/api/swagger"
	"github.com/campusworks/registrar-api/internal/handler"
	"github.com/campusworks/registrar-api/internal/middleware"
	"github.com/campusworks/registrar-api/internal/repository"
	"github.com/campusworks/registrar-api/internal/service"
	"github.com/campusworks/registrar-api/pkg/cache"
	"github.com/campusworks/registrar-api/pkg/config"
	"github.com/campusworks/registrar-api/pkg/database"
	"github.com/campusworks/registrar-api/pkg/logger"
	corsmiddleware "github.com/campusworks/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusworks/registrar-api/pkg/middleware/requestid"
)

// @title University Registrar API
// @version 1.0.0
// @description Academic records service: catalog, scheduling, enrollment and grading
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis connection failed", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
	}

	deptRepo := repository.NewDepartmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	teachingRepo := repository.NewTeachingRepository(db)
	advisorRepo := repository.NewAdvisorRepository(db)

	deptSvc := service.NewDepartmentService(deptRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, deptRepo, cacheSvc, nil, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, deptRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, deptRepo, nil, logr)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, cacheSvc, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, teachingRepo, studentRepo, instructorRepo, cacheSvc, metricsSvc, nil, logr, nil)
	advisorSvc := service.NewAdvisorService(advisorRepo, studentRepo, instructorRepo, nil, logr)
	exportSvc := service.NewExportService(studentSvc, cfg.Exports.Enabled, logr)

	deptHandler := handler.NewDepartmentHandler(deptSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, exportSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	advisorHandler := handler.NewAdvisorHandler(advisorSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/departments", deptHandler.List)
		api.POST("/departments", deptHandler.Create)
		api.GET("/departments/:name", deptHandler.Get)
		api.PATCH("/departments/:name", deptHandler.Update)
		api.DELETE("/departments/:name", deptHandler.Delete)

		api.GET("/students", studentHandler.Search)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PATCH("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)
		api.GET("/students/:id/transcript", studentHandler.Transcript)
		api.GET("/students/:id/transcript/export", studentHandler.ExportTranscript)
		api.GET("/students/:id/gpa", studentHandler.GPA)

		api.GET("/instructors", instructorHandler.List)
		api.POST("/instructors", instructorHandler.Create)
		api.GET("/instructors/:id", instructorHandler.Get)
		api.PATCH("/instructors/:id", instructorHandler.Update)
		api.DELETE("/instructors/:id", instructorHandler.Delete)
		api.GET("/instructors/:id/workload", instructorHandler.Workload)

		api.GET("/courses", courseHandler.List)
		api.POST("/courses", courseHandler.Create)
		api.GET("/courses/:id", courseHandler.Get)
		api.PATCH("/courses/:id", courseHandler.Update)
		api.DELETE("/courses/:id", courseHandler.Delete)
		api.GET("/courses/:id/prerequisites", courseHandler.ListPrerequisites)
		api.PUT("/courses/:id/prerequisites/:prereqId", courseHandler.AddPrerequisite)
		api.DELETE("/courses/:id/prerequisites/:prereqId", courseHandler.RemovePrerequisite)

		api.GET("/sections", sectionHandler.List)
		api.POST("/sections", sectionHandler.Create)
		api.GET("/sections/:courseId/:sectionId/:semester/:year", sectionHandler.Get)
		api.PATCH("/sections/:courseId/:sectionId/:semester/:year", sectionHandler.Update)
		api.DELETE("/sections/:courseId/:sectionId/:semester/:year", sectionHandler.Delete)

		api.POST("/enrollments", enrollmentHandler.Enroll)
		api.POST("/enrollments/cancel", enrollmentHandler.Cancel)
		api.PUT("/enrollments/grade", enrollmentHandler.AssignGrade)
		api.POST("/enrollments/info", enrollmentHandler.Info)
		api.GET("/students/:id/eligibility/:courseId", enrollmentHandler.Eligibility)

		api.POST("/teaching", enrollmentHandler.AssignInstructor)
		api.DELETE("/teaching", enrollmentHandler.UnassignInstructor)

		api.PUT("/advisors", advisorHandler.Assign)
		api.GET("/advisors/:studentId", advisorHandler.Info)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
