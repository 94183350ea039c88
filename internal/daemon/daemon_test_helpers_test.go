package daemon

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"satchel/internal/config"
	"satchel/internal/crypto"
	"satchel/internal/storage"
)

const testSigningKey = "daemon-test-signing-key"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bucket = "satchel-test"
	cfg.Storage = "local"
	return cfg
}

func newLocalDaemon(t *testing.T) (*Daemon, *storage.LocalClient) {
	t.Helper()
	cfg := testConfig()
	client := storage.NewLocalClient(t.TempDir(), "http://"+cfg.Listen, crypto.NewSigner([]byte(testSigningKey)))
	return New(cfg, client, testLogger()), client
}

func uploadPayload(t *testing.T, content []byte) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"file_content": base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		t.Fatalf("marshal upload payload: %v", err)
	}
	return bytes.NewReader(body)
}

func seedObject(t *testing.T, client *storage.LocalClient, bucket, key string, content []byte) {
	t.Helper()
	if err := client.PutObject(context.Background(), bucket, key, content); err != nil {
		t.Fatalf("seed object %s/%s: %v", bucket, key, err)
	}
}

func decodeErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v body=%s", err, rr.Body.String())
	}
	return resp
}

// stubStore satisfies storage.ObjectStore without being a local
// client, for asserting backend-conditional routes.
type stubStore struct{}

func (stubStore) PutObject(context.Context, string, string, []byte) error { return nil }
func (stubStore) GetObject(context.Context, string, string) ([]byte, error) {
	return nil, storage.ErrNotFound
}
func (stubStore) DeleteObject(context.Context, string, string) error { return nil }
func (stubStore) ListKeys(context.Context, string) ([]string, error) { return nil, nil }
func (stubStore) PresignGetObject(context.Context, string, string, time.Duration) (string, error) {
	return "", errors.New("presign is not supported")
}
