package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/handler"
	"github.com/noah-isme/sma-portal-api/internal/middleware"
	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/config"
	"github.com/noah-isme/sma-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-portal-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth           *handler.AuthHandler
	Accounts       *handler.AccountHandler
	Students       *handler.StudentHandler
	Departments    *handler.DepartmentHandler
	Grades         *handler.GradeHandler
	Books          *handler.BookHandler
	LibraryRecords *handler.LibraryRecordHandler
	Fees           *handler.FeeRecordHandler
	Dashboard      *handler.DashboardHandler
	Media          *handler.MediaHandler
	Metrics        *handler.MetricsHandler
}

// Params carries everything the router needs to build the engine.
type Params struct {
	Env            string
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditWriter
	Observer       middleware.RequestObserver
	Handlers       Handlers
}

var (
	adminOnly      = middleware.RequireRoles(models.RoleAdmin)
	staffOnly      = middleware.RequireRoles(models.RoleStaff)
	librarianOnly  = middleware.RequireRoles(models.RoleLibrarian)
	adminStaff     = middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	adminLibrarian = middleware.RequireRoles(models.RoleAdmin, models.RoleLibrarian)
	gradeReaders   = middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleLibrarian)
)

// New builds the gin engine with the portal's route policy.
func New(p Params) *gin.Engine {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.APIPrefix == "" {
		p.APIPrefix = "/api/v1"
	}
	h := p.Handlers

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(p.Logger))
	r.Use(corsmiddleware.New(p.AllowedOrigins))
	r.Use(middleware.Metrics(p.Observer))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if p.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(p.Audit, p.Logger, action, resource)
	}

	api := r.Group(p.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/media/:token", h.Media.Serve)

	authed := api.Group("")
	authed.Use(middleware.JWT(p.Tokens))
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	accounts := authed.Group("/accounts")
	accounts.GET("/me", h.Auth.Me)
	for _, kind := range []models.AccountKind{models.AccountAdmin, models.AccountStaff, models.AccountLibrarian} {
		resource := strings.TrimSuffix(string(kind), "s")
		group := accounts.Group("/"+string(kind), adminOnly)
		group.GET("", h.Accounts.List(kind))
		group.POST("", audit(models.AuditActionCreate, resource), h.Accounts.Create(kind))
		group.GET("/:id", h.Accounts.Get(kind))
		group.PUT("/:id", audit(models.AuditActionUpdate, resource), h.Accounts.Update(kind))
		group.DELETE("/:id", audit(models.AuditActionDelete, resource), h.Accounts.Delete(kind))
		group.POST("/:id/photo", audit(models.AuditActionPhotoUpload, resource), h.Media.UploadPhoto(string(kind)))
	}
	students := accounts.Group("/students", adminStaff)
	{
		students.GET("", h.Students.List)
		students.POST("", audit(models.AuditActionCreate, models.AuditResourceStudent), h.Students.Create)
		students.GET("/:id", h.Students.Get)
		students.PUT("/:id", audit(models.AuditActionUpdate, models.AuditResourceStudent), h.Students.Update)
		students.DELETE("/:id", audit(models.AuditActionDelete, models.AuditResourceStudent), h.Students.Delete)
		students.POST("/:id/photo", audit(models.AuditActionPhotoUpload, models.AuditResourceStudent), h.Media.UploadPhoto("students"))
	}

	management := authed.Group("/management")
	departments := management.Group("/departments", adminOnly)
	{
		departments.GET("", h.Departments.List)
		departments.POST("", audit(models.AuditActionCreate, models.AuditResourceDepartment), h.Departments.Create)
		departments.GET("/:id", h.Departments.Get)
		departments.PUT("/:id", audit(models.AuditActionUpdate, models.AuditResourceDepartment), h.Departments.Update)
		departments.DELETE("/:id", audit(models.AuditActionDelete, models.AuditResourceDepartment), h.Departments.Delete)
	}
	grades := management.Group("/grades")
	{
		grades.GET("", adminStaff, h.Grades.List)
		grades.POST("", adminStaff, audit(models.AuditActionCreate, models.AuditResourceGrade), h.Grades.Create)
		grades.GET("/:id", adminStaff, h.Grades.Get)
		grades.PUT("/:id", adminStaff, audit(models.AuditActionUpdate, models.AuditResourceGrade), h.Grades.Update)
		grades.DELETE("/:id", adminStaff, audit(models.AuditActionDelete, models.AuditResourceGrade), h.Grades.Delete)
		grades.GET("/:id/students", gradeReaders, h.Grades.Students)
	}
	fees := management.Group("/fees", adminStaff)
	{
		fees.GET("", h.Fees.List)
		fees.GET("/form", h.Fees.Form)
		fees.GET("/export", h.Fees.Export)
		fees.POST("", audit(models.AuditActionCreate, models.AuditResourceFeeRecord), h.Fees.Create)
		fees.GET("/:id", h.Fees.Get)
		fees.PUT("/:id", audit(models.AuditActionUpdate, models.AuditResourceFeeRecord), h.Fees.Update)
		fees.DELETE("/:id", audit(models.AuditActionDelete, models.AuditResourceFeeRecord), h.Fees.Delete)
	}

	library := authed.Group("/library")
	library.GET("/dashboard", librarianOnly, h.Dashboard.Library)
	books := library.Group("/books", adminLibrarian)
	{
		books.GET("", h.Books.List)
		books.POST("", audit(models.AuditActionCreate, models.AuditResourceBook), h.Books.Create)
		books.GET("/:id", h.Books.Get)
		books.PUT("/:id", audit(models.AuditActionUpdate, models.AuditResourceBook), h.Books.Update)
		books.DELETE("/:id", audit(models.AuditActionDelete, models.AuditResourceBook), h.Books.Delete)
	}
	records := library.Group("/records", adminLibrarian)
	{
		records.GET("", h.LibraryRecords.List)
		records.GET("/form", h.LibraryRecords.Form)
		records.GET("/export", h.LibraryRecords.Export)
		records.POST("", audit(models.AuditActionCreate, models.AuditResourceLibraryRecord), h.LibraryRecords.Create)
		records.GET("/:id", h.LibraryRecords.Get)
		records.PUT("/:id", audit(models.AuditActionUpdate, models.AuditResourceLibraryRecord), h.LibraryRecords.Update)
		records.DELETE("/:id", audit(models.AuditActionDelete, models.AuditResourceLibraryRecord), h.LibraryRecords.Delete)
	}

	authed.GET("/administration/dashboard", adminOnly, h.Dashboard.Admin)
	authed.GET("/staff/dashboard", staffOnly, h.Dashboard.Staff)

	return r
}
