package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tejzpr/fieldschema-mcp/internal/apperr"
	"github.com/tejzpr/fieldschema-mcp/internal/events"
	"github.com/tejzpr/fieldschema-mcp/internal/hierarchy"
	"github.com/tejzpr/fieldschema-mcp/internal/logging"
	"github.com/tejzpr/fieldschema-mcp/internal/validation"
)

const healthMagic = "fieldschema-mcp-ok"

var (
	startOnce sync.Once
	startErr  error
	// IsPrimary is true when this process owns the web server.
	IsPrimary bool

	log = logging.Component("webserver")
)

func baseURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// Start tries to bind port. If the port is already held by another
// fieldschema-mcp process it sets IsPrimary=false and returns nil; events
// published by this process are then relayed to that server.
func Start(port int) error {
	startOnce.Do(func() {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			if isFieldSchemaServer(baseURL(port)) {
				IsPrimary = false
				log.WithField("port", port).Info("admin server already running, relaying events")
				go Relay(context.Background(), events.Broker, baseURL(port))
				return
			}
			startErr = fmt.Errorf("port %d in use by unknown process: %w", port, err)
			return
		}

		IsPrimary = true
		log.WithField("port", port).Info("admin server listening")
		go func() {
			_ = http.Serve(ln, corsMiddleware(Routes()))
		}()
	})
	return startErr
}

// Routes returns the admin API.
func Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("OPTIONS /api/", handleCORS)
	mux.HandleFunc("GET /api/events", handleSSE)
	mux.HandleFunc("POST /api/events", handleRelayedEvent)

	mux.HandleFunc("POST /api/field-config/merge", handleMergeFieldConfig)

	mux.HandleFunc("GET /api/request-types", handleListRequestTypes)
	mux.HandleFunc("POST /api/request-types", handleDefineRequestType)
	mux.HandleFunc("GET /api/request-types/{id}", handleGetRequestType)
	mux.HandleFunc("PATCH /api/request-types/{id}", handleUpdateRequestType)
	mux.HandleFunc("POST /api/request-types/{id}/custom-fields", handleAddCustomField)
	mux.HandleFunc("DELETE /api/request-types/{id}/custom-fields/{key}", handleRemoveCustomField)
	mux.HandleFunc("POST /api/request-types/{id}/statuses", handleAddStatus)
	mux.HandleFunc("PATCH /api/request-types/{id}/statuses/{index}", handleUpdateStatus)
	mux.HandleFunc("DELETE /api/request-types/{id}/statuses/{index}", handleRemoveStatus)
	mux.HandleFunc("POST /api/request-types/{id}/statuses/{index}/move", handleMoveStatus)
	mux.HandleFunc("POST /api/request-types/{id}/validate", handleValidate)

	mux.HandleFunc("GET /api/request-types/{id}/groups", handleListGroups)
	mux.HandleFunc("POST /api/request-types/{id}/groups", handleCreateGroup)
	mux.HandleFunc("GET /api/groups/{id}", handleGetGroup)
	mux.HandleFunc("DELETE /api/groups/{id}", handleDeleteGroup)
	mux.HandleFunc("PATCH /api/groups/{id}/active", handleToggleActive(hierarchy.KindGroup))
	mux.HandleFunc("GET /api/groups/{id}/subgroups", handleListSubGroups)
	mux.HandleFunc("POST /api/groups/{id}/subgroups", handleCreateSubGroup)
	mux.HandleFunc("DELETE /api/subgroups/{id}", handleDeleteSubGroup)
	mux.HandleFunc("PATCH /api/subgroups/{id}/active", handleToggleActive(hierarchy.KindSubGroup))

	mux.HandleFunc("GET /api/requests", handleListRequests)
	mux.HandleFunc("POST /api/requests", handleSubmitRequest)
	mux.HandleFunc("GET /api/requests/{id}", handleGetRequest)
	mux.HandleFunc("PUT /api/requests/{id}", handleUpdateRequest)

	return mux
}

// isFieldSchemaServer checks whether the process at base is a fieldschema-mcp server.
func isFieldSchemaServer(base string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(base + "/api/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Status == healthMagic
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": healthMagic})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := events.Broker.Subscribe()
	defer events.Broker.Unsubscribe(ch)

	// Send initial keepalive
	fmt.Fprintf(w, ": keepalive\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Name, msg.Data)
			flusher.Flush()
		}
	}
}

// statusFor maps err to an HTTP status code.
func statusFor(err error) int {
	var malformed *requestError
	if errors.As(err, &malformed) {
		return http.StatusBadRequest
	}
	return apperr.Status(err)
}

// requestError is a malformed request: bad path parameter or body.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	body := map[string]any{"error": err.Error()}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		body["errors"] = fieldErrs
	}
	if code >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, code, body)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid %s", name)
	}
	return uint(id), nil
}

func pathIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, badRequest("invalid index")
	}
	return i, nil
}

// pageParams reads ?page= and ?limit=; db.NormalizePage clamps them.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
