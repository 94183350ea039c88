package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"satchel/internal/storage"
)

// Upload stores a file under the name given by the file-name header.
// The request body is a JSON object whose file_content field holds the
// file bytes base64-encoded; when the transport flags the body itself
// as base64, it is unwrapped first. Exactly one put reaches the store
// per successful call and none on a validation failure.
func (g *Gateway) Upload(ctx context.Context, req UploadRequest) Response {
	if g.bucket == "" {
		return errorResponse(http.StatusInternalServerError, msgMissingBucket)
	}
	name := headerValue(req.Headers, "file-name")
	if name == "" {
		return errorResponse(http.StatusBadRequest, msgMissingFileName)
	}
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return g.fail("upload", fmt.Errorf("decode request body: %w", err))
		}
		body = string(raw)
	}
	var payload struct {
		FileContent string `json:"file_content"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return g.fail("upload", fmt.Errorf("parse request body: %w", err))
	}
	if payload.FileContent == "" {
		return errorResponse(http.StatusBadRequest, msgMissingFileContent)
	}
	data, err := base64.StdEncoding.DecodeString(payload.FileContent)
	if err != nil {
		return g.fail("upload", fmt.Errorf("decode file_content: %w", err))
	}
	if err := g.store.PutObject(ctx, g.bucket, name, data); err != nil {
		return g.fail("upload", err)
	}
	g.logger.WithField("file_name", name).Info("file uploaded")
	return jsonResponse(http.StatusOK, map[string]string{
		"message":   msgUploadOK,
		"file_name": name,
	})
}

// Download returns the object named by the file_key path parameter.
// The parameter arrives percent-encoded from the URL path and is
// decoded before the store lookup. The body is base64-encoded raw
// bytes with isBase64Encoded set so callers know to decode.
func (g *Gateway) Download(ctx context.Context, req DownloadRequest) Response {
	if g.bucket == "" {
		return errorResponse(http.StatusInternalServerError, msgMissingBucket)
	}
	rawKey := req.PathParameters["file_key"]
	if rawKey == "" {
		return errorResponse(http.StatusBadRequest, msgMissingFileKey)
	}
	fileKey, err := url.PathUnescape(rawKey)
	if err != nil {
		return errorResponse(http.StatusBadRequest, msgMissingFileKey)
	}
	data, err := g.store.GetObject(ctx, g.bucket, fileKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.logger.WithField("file_key", fileKey).Info("file not found")
			return errorResponse(http.StatusNotFound, msgFileNotFound)
		}
		return g.fail("download", err)
	}
	headers := corsHeaders()
	headers["Content-Type"] = "application/octet-stream"
	headers["Content-Disposition"] = fmt.Sprintf("attachment; filename=\"%s\"", fileKey)
	return Response{
		StatusCode:      http.StatusOK,
		Headers:         headers,
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
	}
}

// Presign mints a time-limited retrieval URL for the object named by
// the file_name query parameter. Identity-provider pre-sign-up trigger
// events share this entry point and are echoed back unchanged before
// any storage logic runs. Presigning never checks that the object
// exists.
func (g *Gateway) Presign(ctx context.Context, event PresignEvent) PresignResult {
	if event.Trigger != nil {
		g.logger.WithField("trigger_source", event.Trigger.TriggerSource).Info("identity trigger passed through")
		return PresignResult{Echo: event.Trigger.Raw}
	}
	if g.bucket == "" {
		return presignError(http.StatusInternalServerError, msgMissingBucket)
	}
	var name string
	if event.Request != nil {
		name = event.Request.QueryStringParameters["file_name"]
	}
	if name == "" {
		return presignError(http.StatusBadRequest, msgMissingPresignName)
	}
	signedURL, err := g.store.PresignGetObject(ctx, g.bucket, name, g.expiry)
	if err != nil {
		g.logger.WithField("file_name", name).WithError(err).Error("presign failed")
		return presignError(http.StatusInternalServerError, msgPresignFailed)
	}
	resp := jsonResponse(http.StatusOK, map[string]string{"url": signedURL})
	return PresignResult{Response: &resp}
}

// Preflight answers CORS preflight checks. Unlike the data handlers,
// which allow everything, it names the exact headers and methods the
// real endpoints accept.
func (g *Gateway) Preflight() Response {
	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": preflightAllowHeaders,
			"Access-Control-Allow-Methods": preflightAllowMethods,
			"Content-Type":                 "application/json",
		},
		Body: "{}",
	}
}

// headerValue looks up a header by case-insensitive name. An empty
// value counts as absent.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
