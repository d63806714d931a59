package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/router"
	"gorm.io/gorm"
)

func main() {
	days := flag.Int("days", 0, "Purge documents trashed more than this many days ago (default TRASH_RETENTION_DAYS)")
	dryRun := flag.Bool("dry-run", true, "List the documents that would be purged without deleting them")
	flag.Parse()

	log := config.GetLogger()
	if err := config.LoadENV(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.WithError(err).Fatal("failed to read configuration")
	}
	config.SetLogLevel(env.LOG_LEVEL)

	retention := *days
	if retention <= 0 {
		retention = env.TRASH_RETENTION_DAYS
	}

	store, err := database.StartGORM()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer store.Close()

	svc, err := router.NewServices(store.GetDB().(*gorm.DB), env)
	if err != nil {
		log.WithError(err).Fatal("failed to set up services")
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	report, err := svc.Scheme.PurgeTrash(ctx, time.Duration(retention)*24*time.Hour, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "purge failed: %v\n", err)
		os.Exit(1)
	}

	if report.DryRun {
		fmt.Printf("%d documents trashed more than %d days ago would be purged: %v\n", report.Candidates, retention, report.IDs)
		fmt.Println("run with --dry-run=false to delete them")
		return
	}
	fmt.Printf("purged %d of %d documents (%d failed)\n", report.Purged, report.Candidates, report.Failed)
	if report.Failed > 0 {
		os.Exit(1)
	}
}
