package main

import (
	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/routes"
	"github.com/cppla/inkwell/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db := config.InitDatabase(&models.User{}, &models.Post{})

	r, err := routes.SetupRouter(db)
	if err != nil {
		utils.Sugar.Fatalf("setup router: %v", err)
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.App.Port)
	if err := utils.GraceServer(":"+cfg.App.Port, r, cfg.App.ReadTimeout, cfg.App.WriteTimeout); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
