package main

import (
	"github.com/manyagkarle13/syllabus-maker/app"
	"github.com/manyagkarle13/syllabus-maker/config"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		config.GetLogger().WithError(err).Fatal("server stopped")
	}
}
