package main

import (
	"os"

	"github.com/DRSN-tech/tourism-backend/internal/app"
	config "github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
)

//	@title						Tourism Backend API
//	@version					1.0
//	@description				Поиск точек интереса рядом, визуальный поиск и планировщик поездок
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
