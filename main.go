package main

import (
	"log"

	"github.com/judgegodwins/chess-rooms/api"
	"github.com/judgegodwins/chess-rooms/game"
	"github.com/judgegodwins/chess-rooms/logger"
	"github.com/judgegodwins/chess-rooms/util"
	"github.com/judgegodwins/chess-rooms/ws"
	"go.uber.org/zap"
)

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger.Init(config.LogLevel)
	defer logger.L().Sync()

	registry := game.NewRegistry(config.RoomIdleTTL)
	defer registry.Stop()

	manager := ws.NewManager(config, registry)
	server := api.NewServer(config, registry, manager)

	logger.L().Info("server starting", zap.String("port", config.Port))

	if err := server.Start(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
