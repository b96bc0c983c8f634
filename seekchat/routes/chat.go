package routes

import (
	"encoding/json"
	"net/http"

	"seekchat/seekchat/config"
	"seekchat/seekchat/controllers"
	"seekchat/seekchat/middlewares"
	"seekchat/seekchat/services/llm"
	"seekchat/seekchat/utils/logging"
	"seekchat/seekchat/utils/types"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config, logger *zap.Logger) chi.Router {
	logger = logging.OrNop(logger)
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))
		mountChat(gr, ctrl, logger)
	})
	return r
}

func mountChat(r chi.Router, ctrl *controllers.ChatController, logger *zap.Logger) {
	// POST /chat/ : one turn in the current conversation
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := ctrl.Chat(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/new", func(w http.ResponseWriter, r *http.Request) {
		state, err := ctrl.NewConversation(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	})

	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Session())
	})

	r.Get("/session/{session_id}/turns", func(w http.ResponseWriter, r *http.Request) {
		turns, err := ctrl.Turns(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, turns)
	})

	// GET /chat/ws : each client message is one prompt (or {"command":"new"})
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		for {
			var msg types.WSMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					logger.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			event := handleWSMessage(r, ctrl, msg)
			if err := wsjson.Write(ctx, conn, event); err != nil {
				return
			}
		}
	})
}

func handleWSMessage(r *http.Request, ctrl *controllers.ChatController, msg types.WSMessage) types.WSEvent {
	if msg.Command == "new" {
		state, err := ctrl.NewConversation(r.Context())
		if err != nil {
			return errorEvent(err)
		}
		return types.WSEvent{Type: "session", Session: state}
	}
	resp, err := ctrl.Chat(r.Context(), msg.ChatRequest)
	if err != nil {
		return errorEvent(err)
	}
	return types.WSEvent{Type: "answer", Answer: resp}
}

func errorEvent(err error) types.WSEvent {
	return types.WSEvent{Type: "error", Error: err.Error(), Kind: llm.ClassifyError(err).String()}
}
