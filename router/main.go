package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/handlers"
	activity_handlers "github.com/manyagkarle13/syllabus-maker/handlers/activity"
	branch_handlers "github.com/manyagkarle13/syllabus-maker/handlers/branch"
	catalog_handlers "github.com/manyagkarle13/syllabus-maker/handlers/catalog"
	scheme_handlers "github.com/manyagkarle13/syllabus-maker/handlers/scheme"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/services/digitalocean"
	"github.com/manyagkarle13/syllabus-maker/services/scheme"
	"github.com/manyagkarle13/syllabus-maker/utils"
	"github.com/manyagkarle13/syllabus-maker/utils/cache"
	"github.com/manyagkarle13/syllabus-maker/utils/middleware"
	"gorm.io/gorm"
)

// Services holds everything the routes need. Build it with NewServices or
// fill it directly in tests.
type Services struct {
	DB       *gorm.DB
	Scheme   *services.SchemeService
	Activity *services.ActivityService
	// Cache is nil when Redis is not reachable
	Cache    *cache.RedisCache
	Security middleware.SecurityConfig
}

// NewServices connects the optional Redis cache and Spaces bucket and builds
// the scheme service on top of db.
func NewServices(db *gorm.DB, env *config.EnvironmentVariable) (*Services, error) {
	log := config.GetLogger()

	svc := &Services{
		DB:       db,
		Activity: services.NewActivityService(db),
		Security: middleware.SecurityConfig{
			AllowedOrigins:    env.ALLOWED_ORIGINS,
			RateLimitRequests: env.RATE_LIMIT_REQUESTS,
			RateLimitWindow:   time.Minute,
		},
	}

	store := database.NewSchemeStore(db)
	opts := services.SchemeServiceOptions{
		Store:           store,
		Catalog:         store,
		Activity:        svc.Activity,
		FrontMatterPath: env.FRONT_MATTER_PATH,
		Layout: scheme.Layout{
			TableBudgetMM: env.TABLE_BUDGET_MM,
			RowHeightMM:   env.TABLE_ROW_HEIGHT_MM,
		},
	}

	if env.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Warnf("Failed to connect to Redis: %v. Catalog lookups will not be cached.", err)
		} else {
			svc.Cache = redisCache
			opts.Catalog = scheme.NewCachedCatalog(store, redisCache, env.CATALOG_CACHE_TTL, log)
		}
	}

	spaces, err := digitalocean.NewSpacesClientFromEnv(env)
	if err != nil {
		svc.Close()
		return nil, err
	}
	if spaces != nil {
		opts.Blobs = spaces
	}

	svc.Scheme = services.NewSchemeService(db, opts)
	return svc, nil
}

// Close releases the Redis connection.
func (s *Services) Close() {
	if s.Cache != nil {
		s.Cache.Close()
	}
}

func SetupRoutes(app *fiber.App, store database.Storage, svc *Services) {
	middleware.SetupSecurity(app, svc.Security)

	branchHandler := branch_handlers.NewBranchHandler(svc.DB, svc.Activity)
	var invalidator catalog_handlers.CacheInvalidator
	if svc.Cache != nil {
		invalidator = svc.Cache
	}
	catalogHandler := catalog_handlers.NewCatalogHandler(svc.DB, svc.Activity, invalidator)
	schemeHandler := scheme_handlers.NewSchemeHandler(svc.Scheme)
	activityHandler := activity_handlers.NewActivityHandler(svc.Activity)

	// Health check endpoint
	app.Get("/health", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api/v1")

	// Branch registry
	branches := api.Group("/branches")
	branches.Get("/", branchHandler.ListBranches)
	branches.Get("/:id", branchHandler.GetBranch)
	branches.Post("/", branchHandler.CreateBranch)
	branches.Put("/:id", branchHandler.UpdateBranch)
	branches.Delete("/:id", branchHandler.DeleteBranch)

	// Dean catalog
	catalog := api.Group("/catalog/courses")
	catalog.Get("/", catalogHandler.ListCourses)
	catalog.Get("/:id", catalogHandler.GetCourse)
	catalog.Post("/", catalogHandler.CreateCourse)
	catalog.Put("/:id", catalogHandler.UpdateCourse)
	catalog.Delete("/:id", catalogHandler.DeleteCourse)

	// Scheme builds
	schemes := api.Group("/schemes/:branch_id/:year/:semester")
	schemes.Get("/rows", schemeHandler.GetRows)
	schemes.Post("/save", schemeHandler.SaveScheme)
	schemes.Post("/generate", schemeHandler.GenerateScheme)
	schemes.Get("/export.xlsx", schemeHandler.ExportScheme)

	// Generated documents
	documents := api.Group("/scheme-documents")
	documents.Get("/", schemeHandler.ListDocuments)
	documents.Get("/:id", schemeHandler.GetDocument)
	documents.Get("/:id/download", schemeHandler.DownloadDocument)
	documents.Post("/:id/trash", schemeHandler.TrashDocument)
	documents.Post("/:id/restore", schemeHandler.RestoreDocument)
	documents.Post("/:id/regenerate", schemeHandler.RegenerateDocument)
	documents.Delete("/:id", schemeHandler.DeleteDocument)

	api.Get("/activity", activityHandler.ListActivity)

	config.GetLogger().Info("Routes registered")
}

