package events

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/normalize"
)

// CommandSet is the operation surface a UI shell drives over HTTP, the
// socket counterpart of the original app's window IPC handlers. A struct of
// funcs rather than an interface so main can wire orchestrator and chat
// bridge methods directly.
type CommandSet struct {
	RunInitial func(ctx context.Context) (*normalize.SolutionResult, error)
	RunDebug   func(ctx context.Context) (*normalize.DebugResult, error)
	CancelAll  func()
	Chat       func(ctx context.Context, message string) (string, error)
}

// response is the uniform command-endpoint reply shape.
type response struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *fault.Failure `json:"error,omitempty"`
}

// AttachCommands registers the command endpoints on the server's mux.
// Call before Start.
func (s *Server) AttachCommands(cmds CommandSet) {
	s.mux.HandleFunc("/run/initial", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		result, err := cmds.RunInitial(r.Context())
		writeCommandResponse(w, result, err)
	})

	s.mux.HandleFunc("/run/debug", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		result, err := cmds.RunDebug(r.Context())
		writeCommandResponse(w, result, err)
	})

	s.mux.HandleFunc("/cancel", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		cmds.CancelAll()
		writeCommandResponse(w, nil, nil)
	})

	s.mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, response{Success: false, Error: fault.New(fault.Generic, "message is required")})
			return
		}
		text, err := cmds.Chat(r.Context(), req.Message)
		if err != nil {
			writeCommandResponse(w, nil, err)
			return
		}
		writeCommandResponse(w, map[string]string{"message": text}, nil)
	})
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeCommandResponse mirrors the original shell contract: failures come
// back as 200 with success=false and a classified error, not HTTP errors.
func writeCommandResponse(w http.ResponseWriter, data any, err error) {
	if err != nil {
		writeJSON(w, response{Success: false, Error: fault.From(err)})
		return
	}
	writeJSON(w, response{Success: true, Data: data})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write command response")
	}
}
