package main

import (
	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/database"
	"gorm.io/gorm"
)

func main() {
	log := config.GetLogger()

	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	if err := database.RunSeeds(store.GetDB().(*gorm.DB)); err != nil {
		log.WithError(err).Fatal("seeding failed")
	}
}
