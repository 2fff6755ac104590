// handlers/admin/init.go - Admin handler dependencies
package admin

import (
	"bughunt/config"
	"bughunt/realtime"
	"bughunt/services"
)

var (
	cfg          config.Config
	roundService *services.RoundService
	store        *services.ProgressStore
	activityLog  *services.ActivityLogger
	hub          *realtime.Hub
)

// Init wires the admin handlers to their services.
func Init(c config.Config, rs *services.RoundService, ps *services.ProgressStore,
	al *services.ActivityLogger, h *realtime.Hub) {
	cfg = c
	roundService = rs
	store = ps
	activityLog = al
	hub = h
}
