package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/morezero/json-api-router/pkg/dispatcher"
	"github.com/morezero/json-api-router/pkg/payload"
	"github.com/morezero/json-api-router/pkg/result"
)

const httpLogPrefix = "server:http"

const maxBodyBytes = 1 << 20

type pinger interface {
	Ping(ctx context.Context) error
}

// HTTPParams holds parameters for NewHTTPHandler.
type HTTPParams struct {
	Router *dispatcher.Router
	// Store is probed by /health.
	Store pinger
	// CommsConnected reports the NATS connection state for /health; nil skips the check.
	CommsConnected func() bool
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
}

// HealthOutput is the /health response body.
type HealthOutput struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks"`
	Timestamp string          `json:"timestamp"`
}

// VersionInfo is one entry of the /versions response body.
type VersionInfo struct {
	Version    int      `json:"version"`
	Procedures []string `json:"procedures"`
}

// NewHTTPHandler returns the HTTP surface: /api, /health, /ready and /versions.
func NewHTTPHandler(params HTTPParams) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api", handleAPI(params))
	mux.HandleFunc("/health", handleHealth(params))
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc("/versions", handleVersions(params.Router))
	return mux
}

func handleAPI(params HTTPParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			p   payload.Payload
			err error
		)
		switch r.Method {
		case http.MethodPost:
			p, err = payloadFromBody(w, r)
		case http.MethodGet:
			p, err = payloadFromQuery(r)
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to decode request: %v", httpLogPrefix, err))
			if _, err := decodeFailure().Render(result.FormatHTTP, w); err != nil {
				slog.Error(fmt.Sprintf("%s - write decode failure: %v", httpLogPrefix, err))
			}
			return
		}

		ctx := r.Context()
		if params.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, params.RequestTimeout)
			defer cancel()
		}

		d := params.Router.NewDispatcher()
		if err := d.SetOutputFormat(result.FormatHTTP); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		d.SetResponseWriter(w)
		d.Route(ctx, p)
	}
}

func payloadFromBody(w http.ResponseWriter, r *http.Request) (payload.Payload, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	buf, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return payload.Decode(buf)
}

// payloadFromQuery builds a payload from proc, version and a JSON-encoded
// arguments parameter.
func payloadFromQuery(r *http.Request) (payload.Payload, error) {
	q := r.URL.Query()
	p := payload.Payload{}
	if q.Has(payload.KeyProc) {
		p[payload.KeyProc] = q.Get(payload.KeyProc)
	}
	if q.Has(payload.KeyVersion) {
		p[payload.KeyVersion] = q.Get(payload.KeyVersion)
	}
	if raw := q.Get(payload.KeyArguments); raw != "" {
		args, err := payload.Decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%s - arguments: %w", httpLogPrefix, err)
		}
		p[payload.KeyArguments] = map[string]any(args)
	}
	return p, nil
}

func handleHealth(params HTTPParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if params.HealthTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, params.HealthTimeout)
			defer cancel()
		}

		h := &HealthOutput{
			Status:    "healthy",
			Checks:    map[string]bool{},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if params.Store != nil {
			err := params.Store.Ping(ctx)
			if err != nil {
				slog.Warn(fmt.Sprintf("%s - health: store ping failed: %v", httpLogPrefix, err))
			}
			h.Checks["database"] = err == nil
		}
		if params.CommsConnected != nil {
			h.Checks["comms"] = params.CommsConnected()
		}
		status := http.StatusOK
		for _, ok := range h.Checks {
			if !ok {
				h.Status = "unhealthy"
				status = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, status, h)
	}
}

func handleVersions(router *dispatcher.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg := router.Registry()
		versions := reg.Versions()
		out := make([]VersionInfo, 0, len(versions))
		for _, v := range versions {
			set, _ := reg.Resolve(v)
			out = append(out, VersionInfo{Version: v, Procedures: set.Procedures()})
		}
		writeJSON(w, http.StatusOK, map[string]any{"versions": out})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - encode response: %v", httpLogPrefix, err))
	}
}
