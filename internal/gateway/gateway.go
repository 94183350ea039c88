package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"satchel/internal/storage"
)

// Response messages the HTTP contract pins down exactly.
const (
	msgMissingBucket      = "Bucket name environment variable is missing"
	msgMissingFileName    = "Missing file-name header"
	msgMissingFileContent = "Missing file_content in body"
	msgMissingFileKey     = "Missing file_key path parameter"
	msgFileNotFound       = "File not found"
	msgMissingPresignName = "file_name query parameter is required"
	msgPresignFailed      = "Could not generate presigned URL"
	msgUploadOK           = "File uploaded successfully"
)

const (
	preflightAllowHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token,file-name"
	preflightAllowMethods = "GET,POST,OPTIONS"
)

// Gateway maps upload, download, and presign requests onto an injected
// object store. Every response carries the permissive CORS header set;
// error bodies are always {"error": message}.
type Gateway struct {
	store  storage.ObjectStore
	bucket string
	expiry time.Duration
	logger logrus.FieldLogger
}

type Options struct {
	// Bucket is the target bucket for all operations. Empty means
	// unconfigured, which the data handlers report per request.
	Bucket string

	// PresignExpiry is the lifetime of minted URLs. Zero or negative
	// falls back to one hour.
	PresignExpiry time.Duration

	Logger logrus.FieldLogger
}

func New(store storage.ObjectStore, opts Options) *Gateway {
	expiry := opts.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gateway{
		store:  store,
		bucket: opts.Bucket,
		expiry: expiry,
		logger: logger,
	}
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "*",
		"Access-Control-Allow-Methods": "*",
	}
}

func jsonResponse(status int, v any) Response {
	body, _ := json.Marshal(v)
	headers := corsHeaders()
	headers["Content-Type"] = "application/json"
	return Response{StatusCode: status, Headers: headers, Body: string(body)}
}

func errorResponse(status int, message string) Response {
	return jsonResponse(status, map[string]string{"error": message})
}

func presignError(status int, message string) PresignResult {
	resp := errorResponse(status, message)
	return PresignResult{Response: &resp}
}

// fail recovers an unexpected error into the contract's 500 shape with
// the error text as the message.
func (g *Gateway) fail(op string, err error) Response {
	g.logger.WithField("op", op).WithError(err).Error("request failed")
	return errorResponse(http.StatusInternalServerError, err.Error())
}
