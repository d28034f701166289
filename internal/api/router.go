package api

import (
	"net/http"
	"strings"
)

func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/context", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			h.HandleReplaceContext(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.HandleCreateConversation(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/conversations/", func(w http.ResponseWriter, r *http.Request) {
		// /conversations/{id}/history | /questions | /messages/{mid}/...
		path := strings.TrimSuffix(r.URL.Path, "/")
		const prefix = "/conversations/"
		if !strings.HasPrefix(path, prefix) {
			http.NotFound(w, r)
			return
		}
		rest := strings.TrimPrefix(path, prefix)
		parts := strings.Split(rest, "/")
		if len(parts) == 0 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		tail := ""
		if len(parts) > 1 {
			tail = parts[1]
		}

		switch tail {
		case "history":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleGetHistory(w, r, id)
			return
		case "questions":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleSubmitQuestion(w, r, id)
			return
		case "messages":
			// /conversations/{id}/messages/{mid}/narration | /reaction
			if len(parts) < 4 {
				http.NotFound(w, r)
				return
			}
			messageID := parts[2]
			action := parts[3]
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			switch action {
			case "narration":
				h.HandleToggleNarration(w, r, id, messageID)
				return
			case "reaction":
				h.HandleSetReaction(w, r, id, messageID)
				return
			default:
				http.NotFound(w, r)
				return
			}
		default:
			http.NotFound(w, r)
			return
		}
	})

	return mux
}
