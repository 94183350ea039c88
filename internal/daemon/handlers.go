package daemon

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"satchel/internal/gateway"
	"satchel/internal/storage"
)

// newHandler builds the route table. Path matching runs on the
// encoded path so that percent-encoded file keys reach the download
// handler untouched; the handler owns the decoding.
func (d *Daemon) newHandler() http.Handler {
	r := mux.NewRouter()
	r.UseEncodedPath()
	r.NotFoundHandler = http.HandlerFunc(d.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(d.handleMethodNotAllowed)
	r.Use(d.loggingMiddleware)

	r.HandleFunc("/v1/upload", d.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/v1/upload", d.handlePreflight).Methods(http.MethodOptions)
	r.HandleFunc("/v1/download/{file_key}", d.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/v1/download/{file_key}", d.handlePreflight).Methods(http.MethodOptions)
	r.HandleFunc("/v1/presign", d.handlePresignQuery).Methods(http.MethodGet)
	r.HandleFunc("/v1/presign", d.handlePresignEvent).Methods(http.MethodPost)
	r.HandleFunc("/v1/presign", d.handlePreflight).Methods(http.MethodOptions)
	r.HandleFunc("/v1/status", d.handleStatus).Methods(http.MethodGet)

	// Presigned links minted by the local backend point back at this
	// daemon, so the fetch route only exists for that backend.
	if local, ok := d.store.(*storage.LocalClient); ok {
		r.HandleFunc("/local/{bucket}/{key:.*}", d.handleLocalFetch(local)).Methods(http.MethodGet)
	}
	return r
}

func (d *Daemon) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			d.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		d.writeError(w, http.StatusBadRequest, fmt.Sprintf("read request body: %v", err))
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	d.writeResponse(w, d.gw.Upload(r.Context(), gateway.UploadRequest{
		Headers:         headers,
		Body:            string(body),
		IsBase64Encoded: isBase64Transfer(r.Header),
	}))
}

func (d *Daemon) handleDownload(w http.ResponseWriter, r *http.Request) {
	d.writeResponse(w, d.gw.Download(r.Context(), gateway.DownloadRequest{
		PathParameters: mux.Vars(r),
	}))
}

func (d *Daemon) handlePresignQuery(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	d.writePresignResult(w, d.gw.Presign(r.Context(), gateway.PresignEvent{
		Request: &gateway.PresignRequest{QueryStringParameters: params},
	}))
}

func (d *Daemon) handlePresignEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONRequestBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		d.writeError(w, http.StatusBadRequest, fmt.Sprintf("read request body: %v", err))
		return
	}
	event, err := gateway.ParsePresignEvent(raw)
	if err != nil {
		d.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	d.writePresignResult(w, d.gw.Presign(r.Context(), event))
}

func (d *Daemon) handlePreflight(w http.ResponseWriter, r *http.Request) {
	d.writeResponse(w, d.gw.Preflight())
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, statusResponse{
		State:     "running",
		Backend:   d.cfg.Backend(),
		Bucket:    d.cfg.Bucket,
		StartedAt: d.startedAt.UTC().Format(time.RFC3339),
	})
}

func (d *Daemon) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	d.writeError(w, http.StatusNotFound, "not found")
}

func (d *Daemon) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	d.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (d *Daemon) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		d.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// isBase64Transfer reports whether the client declared the request
// body itself to be base64-wrapped.
func isBase64Transfer(h http.Header) bool {
	return strings.EqualFold(strings.TrimSpace(h.Get("Content-Transfer-Encoding")), "base64")
}

// writeResponse sends a handler result over HTTP, decoding bodies the
// handler flagged as base64 back to raw bytes.
func (d *Daemon) writeResponse(w http.ResponseWriter, resp gateway.Response) {
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			d.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		body = decoded
	}
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// writePresignResult sends either the API response or, for identity
// triggers, the original event payload verbatim.
func (d *Daemon) writePresignResult(w http.ResponseWriter, result gateway.PresignResult) {
	if result.Response != nil {
		d.writeResponse(w, *result.Response)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Echo)
}

func (d *Daemon) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (d *Daemon) writeError(w http.ResponseWriter, status int, message string) {
	d.writeJSON(w, status, errorResponse{Error: message})
}
