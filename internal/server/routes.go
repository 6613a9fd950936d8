package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const healthProbeTimeout = 3 * time.Second

func (s *Server) registerRoutes(mux *http.ServeMux) {
	getServer := func(*http.Request) *mcp.Server { return s.mcp }

	mux.Handle("/sse", mcp.NewSSEHandler(getServer, nil))
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(getServer, nil))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "ok",
		"version":   s.version,
		"uptime_ms": time.Since(s.started).Milliseconds(),
	}
	if s.node == nil {
		writeJSON(w, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()
	info, err := s.node.GetInfo(ctx)
	if err != nil {
		body["status"] = "degraded"
		body["node"] = map[string]interface{}{"reachable": false, "error": err.Error()}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(body)
		return
	}
	node := map[string]interface{}{"reachable": true}
	for _, k := range []string{"serverVersion", "isSynced", "isUtxoIndexed"} {
		if v, ok := info[k]; ok {
			node[k] = v
		}
	}
	body["node"] = node
	writeJSON(w, body)
}
