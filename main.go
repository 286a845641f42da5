package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cppla/habitrack/config"
	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/repository"
	"github.com/cppla/habitrack/routes"
	"github.com/cppla/habitrack/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	utils.SetLocation(cfg.Location())

	db := config.InitDatabase(&models.User{}, &models.Habit{}, &models.HabitLog{}, &models.HabitCompletion{}, &models.Badge{})

	r := routes.SetupRouter(db)

	// Drain habits whose completion records failed to reconcile (best-effort)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.StartCompletionRepair(ctx, time.Duration(cfg.RepairIntervalSec)*time.Second, repository.Repairer(db, utils.Now))

	utils.Sugar.Infof("Starting server on port %s (graceful), timezone %s", cfg.AppPort, utils.Location())
	if err := utils.GraceServer(":"+cfg.AppPort, r, cancel); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
