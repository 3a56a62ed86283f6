package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/handler"
	"github.com/ifpm-dz/ifpm-api/internal/middleware"
	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	"github.com/ifpm-dz/ifpm-api/pkg/config"
	"github.com/ifpm-dz/ifpm-api/pkg/logger"
	corsmiddleware "github.com/ifpm-dz/ifpm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ifpm-dz/ifpm-api/pkg/middleware/requestid"
)

// Deps bundles everything the router needs to register routes.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Redis   *redis.Client
	Auth    *service.AuthService
	Audits  *service.AuditService
	Metrics *service.MetricsService

	Health         *handler.HealthHandler
	AuthH          *handler.AuthHandler
	Filieres       *handler.FiliereHandler
	Specialities   *handler.SpecialityHandler
	Years          *handler.YearHandler
	Semesters      *handler.SemesterHandler
	Groups         *handler.GroupHandler
	Modules        *handler.ModuleHandler
	Notes          *handler.NoteHandler
	Plannings      *handler.PlanningHandler
	Announcements  *handler.AnnouncementHandler
	Downloads      *handler.DownloadHandler
	Regulatory     *handler.RegulatoryTextHandler
	HeroSlides     *handler.HeroSlideHandler
	Establishments *handler.EstablishmentHandler
	StudentsAdmin  *handler.StudentAdminHandler
	StudentPortal  *handler.StudentPortalHandler
	Dashboards     *handler.DashboardHandler
	AuditH         *handler.AuditHandler
}

// New builds the gin engine with the full route table.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.Logger))
	r.Use(corsmiddleware.New(d.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.Metrics))

	r.GET("/health", d.Health.Health)
	r.GET("/ready", d.Health.Ready)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	if d.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.Config.APIPrefix)
	api.Use(middleware.RateLimit(d.Redis, d.Config.RateLimit, d.Logger))

	registerAuthRoutes(api, d)
	registerPublicRoutes(api, d)
	registerStudentRoutes(api, d)
	registerAdminRoutes(api, d)

	// Signed note links carry their own credentials, so they live outside
	// the JWT groups.
	api.GET("/files/notes", d.Notes.ServeSigned)

	return r
}

func registerAuthRoutes(api *gin.RouterGroup, d Deps) {
	auth := api.Group("/auth")
	auth.POST("/login", d.AuthH.Login)
	auth.POST("/refresh", d.AuthH.Refresh)
	auth.POST("/forgot-password", d.AuthH.ForgotPassword)
	auth.POST("/reset-password", d.AuthH.ResetPassword)

	authed := auth.Group("", middleware.JWT(d.Auth))
	authed.POST("/logout", d.AuthH.Logout)
	authed.GET("/me", d.AuthH.Me)
	authed.POST("/change-password", d.AuthH.ChangePassword)
}

// registerPublicRoutes serves the unauthenticated website surface.
func registerPublicRoutes(api *gin.RouterGroup, d Deps) {
	pub := api.Group("/public")

	pub.GET("/filieres", d.Filieres.PublicList)
	pub.GET("/filieres/:id", d.Filieres.Get)
	pub.GET("/specialites", d.Specialities.PublicList)
	pub.GET("/specialites/:id", d.Specialities.Get)
	pub.GET("/modules", d.Modules.PublicList)
	pub.GET("/modules/:id", d.Modules.Get)
	pub.GET("/etablissements", d.Establishments.List)
	pub.GET("/etablissements/:id", d.Establishments.Get)

	pub.GET("/hero-slides", d.HeroSlides.PublicList)

	pub.GET("/annonces", d.Announcements.PublicList)
	pub.GET("/annonces/:id", d.Announcements.PublicGet)

	pub.GET("/telechargements", d.Downloads.PublicList)
	pub.GET("/telechargements/:id", d.Downloads.PublicGet)
	pub.GET("/telechargements/:id/fichier", d.Downloads.ServeFile)

	pub.GET("/textes-reglementaires", d.Regulatory.PublicList)
	pub.GET("/textes-reglementaires/:id", d.Regulatory.PublicGet)
}

// registerStudentRoutes serves the authenticated student area.
func registerStudentRoutes(api *gin.RouterGroup, d Deps) {
	st := api.Group("/student", middleware.JWT(d.Auth), middleware.RequireRoles(models.RoleStudent))

	st.GET("/modules", d.Modules.StudentModules)
	st.GET("/notes", d.Notes.StudentList)
	st.GET("/notes/:id", d.Notes.StudentGet)
	st.GET("/notes/:id/file", d.Notes.StudentServe)
	st.POST("/notes/:id/signed-url", d.Notes.StudentSignedURL)

	st.GET("/schedule", d.StudentPortal.Schedule)
	st.GET("/dashboard", d.StudentPortal.Dashboard)
	st.GET("/profile", d.StudentPortal.Profile)
	st.PUT("/profile", d.StudentPortal.UpdateProfile)
}

// registerAdminRoutes serves the back-office. Mutations carry the audit
// middleware so every write lands in the trail.
func registerAdminRoutes(api *gin.RouterGroup, d Deps) {
	admin := api.Group("/admin", middleware.JWT(d.Auth), middleware.RequireRoles(models.RoleAdmin))

	admin.GET("/dashboard", d.Dashboards.Admin)
	admin.GET("/dashboard/analytics", d.Dashboards.Analytics)
	admin.GET("/audit-logs", d.AuditH.List)

	registerResource(admin, d, "/filieres", "filiere", crud{
		list: d.Filieres.List, get: d.Filieres.Get,
		create: d.Filieres.Create, update: d.Filieres.Update, remove: d.Filieres.Delete,
	})
	registerResource(admin, d, "/specialites", "specialite", crud{
		list: d.Specialities.List, get: d.Specialities.Get,
		create: d.Specialities.Create, update: d.Specialities.Update, remove: d.Specialities.Delete,
	})
	registerResource(admin, d, "/annees", "annee", crud{
		list: d.Years.List, get: d.Years.Get,
		create: d.Years.Create, update: d.Years.Update, remove: d.Years.Delete,
	})
	registerResource(admin, d, "/semestres", "semestre", crud{
		list: d.Semesters.List, get: d.Semesters.Get,
		create: d.Semesters.Create, update: d.Semesters.Update, remove: d.Semesters.Delete,
	})
	registerResource(admin, d, "/groupes", "groupe", crud{
		list: d.Groups.List, get: d.Groups.Get,
		create: d.Groups.Create, update: d.Groups.Update, remove: d.Groups.Delete,
	})

	registerResource(admin, d, "/modules", "module", crud{
		list: d.Modules.List, get: d.Modules.Get,
		create: d.Modules.Create, update: d.Modules.Update, remove: d.Modules.Delete,
	})
	admin.GET("/modules/:id/years", d.Modules.YearAssignments)
	admin.PUT("/modules/:id/years", audited(d, models.AuditActionUpdate, "module"), d.Modules.AssignYears)

	admin.GET("/notes", d.Notes.List)
	admin.GET("/notes/:id", d.Notes.Get)
	admin.GET("/notes/:id/stats", d.Notes.Stats)
	admin.GET("/notes/:id/file", d.Notes.AdminServe)
	admin.POST("/notes", audited(d, models.AuditActionCreate, "note"), d.Notes.Upload)
	admin.POST("/notes/bulk", audited(d, models.AuditActionCreate, "note"), d.Notes.BulkUpload)
	admin.PUT("/notes/:id", audited(d, models.AuditActionUpdate, "note"), d.Notes.Update)
	admin.POST("/notes/:id/assign", audited(d, models.AuditActionUpdate, "note"), d.Notes.Assign)
	admin.DELETE("/notes/:id", audited(d, models.AuditActionDelete, "note"), d.Notes.Delete)

	admin.GET("/plannings", d.Plannings.List)
	admin.GET("/plannings/:id", d.Plannings.Get)
	admin.POST("/plannings", audited(d, models.AuditActionCreate, "planning"), d.Plannings.Create)
	admin.PUT("/plannings/:id", audited(d, models.AuditActionUpdate, "planning"), d.Plannings.Update)
	admin.PUT("/plannings/:id/publish", audited(d, models.AuditActionUpdate, "planning"), d.Plannings.Publish)
	admin.DELETE("/plannings/:id", audited(d, models.AuditActionDelete, "planning"), d.Plannings.Delete)
	admin.POST("/plannings/:id/items", audited(d, models.AuditActionUpdate, "planning"), d.Plannings.AddItem)
	admin.PUT("/plannings/:id/items/:itemId", audited(d, models.AuditActionUpdate, "planning"), d.Plannings.UpdateItem)
	admin.DELETE("/plannings/:id/items/:itemId", audited(d, models.AuditActionUpdate, "planning"), d.Plannings.DeleteItem)

	admin.GET("/schedule-images", d.Plannings.ListImages)
	admin.POST("/schedule-images", audited(d, models.AuditActionCreate, "schedule_image"), d.Plannings.UploadImage)
	admin.PUT("/schedule-images/:id/activate", audited(d, models.AuditActionUpdate, "schedule_image"), d.Plannings.ActivateImage)
	admin.DELETE("/schedule-images/:id", audited(d, models.AuditActionDelete, "schedule_image"), d.Plannings.DeleteImage)

	registerResource(admin, d, "/annonces", "annonce", crud{
		list: d.Announcements.List, get: d.Announcements.Get,
		create: d.Announcements.Create, update: d.Announcements.Update, remove: d.Announcements.Delete,
	})
	registerResource(admin, d, "/telechargements", "telechargement", crud{
		list: d.Downloads.List, get: d.Downloads.Get,
		create: d.Downloads.Create, update: d.Downloads.Update, remove: d.Downloads.Delete,
	})
	registerResource(admin, d, "/textes-reglementaires", "texte_reglementaire", crud{
		list: d.Regulatory.List, get: d.Regulatory.Get,
		create: d.Regulatory.Create, update: d.Regulatory.Update, remove: d.Regulatory.Delete,
	})
	registerResource(admin, d, "/hero-slides", "hero_slide", crud{
		list: d.HeroSlides.List, get: d.HeroSlides.Get,
		create: d.HeroSlides.Create, update: d.HeroSlides.Update, remove: d.HeroSlides.Delete,
	})
	registerResource(admin, d, "/etablissements", "etablissement", crud{
		list: d.Establishments.List, get: d.Establishments.Get,
		create: d.Establishments.Create, update: d.Establishments.Update, remove: d.Establishments.Delete,
	})

	admin.GET("/etudiants", d.StudentsAdmin.List)
	admin.GET("/etudiants/export", d.StudentsAdmin.Export)
	admin.GET("/etudiants/:id", d.StudentsAdmin.Get)
	admin.GET("/etudiants/:id/activity", d.StudentsAdmin.Activity)
	admin.POST("/etudiants", audited(d, models.AuditActionCreate, "etudiant"), d.StudentsAdmin.Create)
	admin.PUT("/etudiants/:id", audited(d, models.AuditActionUpdate, "etudiant"), d.StudentsAdmin.Update)
	admin.DELETE("/etudiants/:id", audited(d, models.AuditActionDelete, "etudiant"), d.StudentsAdmin.Deactivate)
	admin.POST("/etudiants/:id/reset-password", audited(d, models.AuditActionPasswordReset, "etudiant"), d.StudentsAdmin.ResetPassword)
	admin.POST("/etudiants/:id/assign-modules", audited(d, models.AuditActionUpdate, "etudiant"), d.StudentsAdmin.AssignModules)
}

type crud struct {
	list   gin.HandlerFunc
	get    gin.HandlerFunc
	create gin.HandlerFunc
	update gin.HandlerFunc
	remove gin.HandlerFunc
}

func registerResource(g *gin.RouterGroup, d Deps, path, resource string, h crud) {
	g.GET(path, h.list)
	g.GET(path+"/:id", h.get)
	g.POST(path, audited(d, models.AuditActionCreate, resource), h.create)
	g.PUT(path+"/:id", audited(d, models.AuditActionUpdate, resource), h.update)
	g.DELETE(path+"/:id", audited(d, models.AuditActionDelete, resource), h.remove)
}

func audited(d Deps, action, resource string) gin.HandlerFunc {
	return middleware.Audit(d.Audits, action, resource)
}
