package main

import (
	"github.com/Kirill-Khudyakov/shotline/config"
	"github.com/Kirill-Khudyakov/shotline/models"
	"github.com/Kirill-Khudyakov/shotline/routes"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.PostImage{},
		&models.Like{},
		&models.Comment{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
