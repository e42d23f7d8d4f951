package controllers

import (
	"net/http"
	"timekeeper/internal/models"
	"timekeeper/internal/providers"
	"timekeeper/internal/services"
)

var (
	errUserNotFound   = models.NewNotFoundError("user does not exist")
	errPresetNotFound = models.NewNotFoundError("preset does not exist")
	errNoPresets      = models.NewNotFoundError("user has no presets")
)

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

type premiumRequest struct {
	Grant            string `json:"grant"`
	Admin            bool   `json:"admin"`
	PreventOverwrite bool   `json:"preventOverwrite"`
}

func (p premiumRequest) status() models.PremiumStatus {
	if p.Admin {
		return models.AdminOverride()
	}
	return models.GrantedPremium(p.Grant)
}

type UserController struct {
	logger providers.Logger
	users  services.UserServiceInterface
}

func NewUserController(logger providers.Logger, users services.UserServiceInterface) *UserController {
	return &UserController{logger: logger, users: users}
}

func (uc *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r, "id")
	if !ok {
		return
	}
	user, err := uc.users.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, uc.logger, err)
		return
	}
	if user == nil {
		writeError(w, r, uc.logger, errUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (uc *UserController) GetPresets(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	presets, err := uc.users.GetPresets(r.Context(), user)
	if err != nil {
		writeError(w, r, uc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

func (uc *UserController) GetPreset(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	tag, ok := requireParam(w, r, "tag")
	if !ok {
		return
	}
	p, err := uc.users.GetPreset(r.Context(), user, tag)
	if err != nil {
		writeError(w, r, uc.logger, err)
		return
	}
	if p == nil {
		writeError(w, r, uc.logger, errPresetNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (uc *UserController) InsertPreset(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	var p models.Preset
	if !decodeBody(w, r, &p) {
		return
	}
	if err := uc.users.InsertPreset(r.Context(), user, p); err != nil {
		writeError(w, r, uc.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (uc *UserController) DeletePreset(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	tag, ok := requireParam(w, r, "tag")
	if !ok {
		return
	}
	res, err := uc.users.DeletePreset(r.Context(), user, tag)
	if err != nil {
		writeError(w, r, uc.logger, err)
		return
	}
	switch res {
	case services.PresetsAbsent:
		writeError(w, r, uc.logger, errNoPresets)
	case services.PresetNotFound:
		writeError(w, r, uc.logger, errPresetNotFound)
	case services.PresetDeleted:
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func (uc *UserController) SetTimezone(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	var req timezoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := uc.users.SetUserTimezone(r.Context(), user, req.Timezone); err != nil {
		writeError(w, r, uc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// SetPremium answers updated=false when preventOverwrite kept an existing grant.
func (uc *UserController) SetPremium(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	var req premiumRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := uc.users.SetPremiumUser(r.Context(), user, req.status(), req.PreventOverwrite)
	if err != nil {
		writeError(w, r, uc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}
