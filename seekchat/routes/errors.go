package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"seekchat/seekchat/controllers"
	"seekchat/seekchat/services/llm"
)

// errorStatus maps controller failures onto bridge status codes.
func errorStatus(err error) int {
	var reqErr *llm.RequestError
	switch {
	case errors.Is(err, controllers.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, controllers.ErrTranscriptsDisabled):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrNoChatSession):
		return http.StatusServiceUnavailable
	case errors.As(err, &reqErr) && reqErr.Kind == llm.KindTimeout:
		return http.StatusGatewayTimeout
	case errors.As(err, &reqErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  llm.ClassifyError(err).String(),
	})
}
