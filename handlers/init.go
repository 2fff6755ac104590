// handlers/init.go - Shared handler dependencies
package handlers

import (
	"bughunt/config"
	"bughunt/realtime"
	"bughunt/services"
)

var (
	cfg          config.Config
	gameService  *services.GameService
	roundService *services.RoundService
	store        *services.ProgressStore
	activityLog  *services.ActivityLogger
	hub          *realtime.Hub
)

// Init wires the handler package to its services. Must be called before
// any route is served.
func Init(c config.Config, gs *services.GameService, rs *services.RoundService,
	ps *services.ProgressStore, al *services.ActivityLogger, h *realtime.Hub) {
	cfg = c
	gameService = gs
	roundService = rs
	store = ps
	activityLog = al
	hub = h
}
