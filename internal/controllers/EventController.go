package controllers

import (
	"io"
	"net/http"
	"strconv"
	"timekeeper/internal/models"
	"timekeeper/internal/providers"
	"timekeeper/internal/services"
)

const maxImportSize = 4 << 20 // 4 MB

type EventController struct {
	logger  providers.Logger
	events  services.EventServiceInterface
	imports services.ImportServiceInterface
	exports services.ExportServiceInterface
}

func NewEventController(
	logger providers.Logger,
	events services.EventServiceInterface,
	imports services.ImportServiceInterface,
	exports services.ExportServiceInterface,
) *EventController {
	return &EventController{
		logger:  logger,
		events:  events,
		imports: imports,
		exports: exports,
	}
}

// ListEvents answers every event when no user is given.
func (ec *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := ec.events.ListEvents(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, r, ec.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (ec *EventController) ListExpiredEvents(w http.ResponseWriter, r *http.Request) {
	events, err := ec.events.ListExpiredEvents(r.Context())
	if err != nil {
		writeError(w, r, ec.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (ec *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r, "id")
	if !ok {
		return
	}
	ev, err := ec.events.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, ec.logger, err)
		return
	}
	if ev == nil {
		writeError(w, r, ec.logger, models.ErrEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (ec *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r, "id")
	if !ok {
		return
	}
	deleted, err := ec.events.DeleteEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, ec.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (ec *EventController) Import(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	res, err := ec.imports.Import(r.Context(), user, payload)
	if err != nil {
		writeError(w, r, ec.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (ec *EventController) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = services.FormatJSON
	}

	file, err := ec.exports.ExportUser(r.Context(), user, format)
	if err != nil {
		writeError(w, r, ec.logger, err)
		return
	}
	writeFile(w, file)
}

func (ec *EventController) ExportEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r, "id")
	if !ok {
		return
	}
	file, err := ec.exports.ExportEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, ec.logger, err)
		return
	}
	writeFile(w, file)
}

func writeFile(w http.ResponseWriter, file *services.ExportFile) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
