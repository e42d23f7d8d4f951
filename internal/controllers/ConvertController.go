package controllers

import (
	"net/http"
	"timekeeper/internal/providers"
	"timekeeper/internal/services"
)

type convertStartResponse struct {
	FlowKey string `json:"flowKey"`
}

type convertSubmitRequest struct {
	User    string `json:"user"`
	FlowKey string `json:"flowKey"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type ConvertController struct {
	logger  providers.Logger
	convert services.ConvertServiceInterface
}

func NewConvertController(logger providers.Logger, convert services.ConvertServiceInterface) *ConvertController {
	return &ConvertController{logger: logger, convert: convert}
}

func (cc *ConvertController) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := requireParam(w, r, "user")
	if !ok {
		return
	}
	tz, ok := requireParam(w, r, "tz")
	if !ok {
		return
	}
	key, err := cc.convert.Start(r.Context(), user, tz)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, convertStartResponse{FlowKey: key})
}

func (cc *ConvertController) Submit(w http.ResponseWriter, r *http.Request) {
	var req convertSubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.User == "" {
		writeMessage(w, http.StatusBadRequest, "missing user")
		return
	}
	res, err := cc.convert.Submit(r.Context(), req.User, req.FlowKey, req.Date, req.Time)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
