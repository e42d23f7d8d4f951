package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"net/http"
	"timekeeper/internal/models"
	"timekeeper/internal/providers"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type errorResponse struct {
	Error     string `json:"error"`
	Remaining *int   `json:"remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps err onto a status code. Only unexpected errors are logged
// as faults; their message is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger providers.Logger, err error) {
	var (
		userErr  *models.Error
		quotaErr *models.QuotaError
	)
	switch {
	case errors.As(err, &quotaErr):
		remaining := quotaErr.Remaining
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: quotaErr.Error(), Remaining: &remaining})
	case errors.As(err, &userErr):
		logger.Debugf(providers.GetLogTypeByRequestType(r.Method), "%s %s rejected: %s", r.Method, r.URL.Path, userErr)
		writeMessage(w, statusForKind(userErr.Kind), userErr.Message)
	default:
		logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s failed: %s", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// requireParam reads a query parameter, answering 400 when it is empty.
func requireParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		writeMessage(w, http.StatusBadRequest, "missing "+name+" parameter")
		return "", false
	}
	return v, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Bad Request")
		return false
	}
	return true
}
