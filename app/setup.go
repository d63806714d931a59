package app

import (
	"fmt"
	"time"

	"github.com/manyagkarle13/syllabus-maker/api"
	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/router"
	"github.com/manyagkarle13/syllabus-maker/services/cron"
	"gorm.io/gorm"
)

func SetupAndRunServer() error {
	log := config.GetLogger()

	// Load ENV
	if err := config.LoadENV(); err != nil {
		log.Warnf("no .env file loaded: %v", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	config.SetLogLevel(getEnv.LOG_LEVEL)

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		log.Error("Check whether Postgres is running (make docker-up or make db-up)")
		return err
	}

	if err := store.Init(); err != nil {
		log.Error("Failed to initialize database tables")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("storage does not expose a GORM connection")
	}

	svc, err := router.NewServices(db, getEnv)
	if err != nil {
		store.Close()
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(db, svc.Scheme, cron.Config{
			PurgeSchedule:  getEnv.TRASH_PURGE_SCHEDULE,
			TrashRetention: time.Duration(getEnv.TRASH_RETENTION_DAYS) * 24 * time.Hour,
		})
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			config.LogError(log, "app", "SetupAndRunServer", "start cron jobs", getEnv.TRASH_PURGE_SCHEDULE, err)
			cronManager = nil
		}
	}

	// Defer Closing DB, cache and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		svc.Close()
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store, svc)

	return server.Run()
}
