package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/config"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName: "syllabus-maker",
			// generated PDFs and form submissions stay well below this
			BodyLimit: 8 * 1024 * 1024,
		}),
		listenAddress: listenAddress,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	config.GetLogger().WithField("address", s.listenAddress).Info("starting API server")
	return s.app.Listen(s.listenAddress)
}
