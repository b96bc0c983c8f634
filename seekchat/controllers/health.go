package controllers

import (
	"encoding/json"
	"net/http"
)

type HealthController struct {
	chat *ChatController
}

func NewHealthController(chat *ChatController) *HealthController {
	return &HealthController{chat: chat}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if h.chat != nil {
		body["chat_session"] = h.chat.Session().ChatSessionID != ""
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}
