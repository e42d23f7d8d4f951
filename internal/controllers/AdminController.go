package controllers

import (
	"net/http"
	"timekeeper/internal/providers"
	"timekeeper/internal/services"
)

type AdminController struct {
	logger providers.Logger
	stats  services.StatsServiceInterface
}

func NewAdminController(logger providers.Logger, stats services.StatsServiceInterface) *AdminController {
	return &AdminController{logger: logger, stats: stats}
}

func (ac *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := ac.stats.Stats(r.Context())
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
