package daemon

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"satchel/internal/config"
	"satchel/internal/gateway"
	"satchel/internal/storage"
)

const (
	serverReadHeaderTimeout = 5 * time.Second
	serverReadTimeout       = 10 * time.Second
	serverWriteTimeout      = 30 * time.Second
	serverIdleTimeout       = 60 * time.Second
	serverMaxHeaderBytes    = 1 << 20
)

// Daemon serves the gateway handlers over HTTP. It owns no mutable
// state of its own; every request is handled independently and the
// object store arbitrates concurrent writes.
type Daemon struct {
	cfg       *config.Config
	store     storage.ObjectStore
	gw        *gateway.Gateway
	logger    logrus.FieldLogger
	startedAt time.Time
	handler   http.Handler
}

func New(cfg *config.Config, store storage.ObjectStore, logger logrus.FieldLogger) *Daemon {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Daemon{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		startedAt: time.Now(),
	}
	d.gw = gateway.New(store, gateway.Options{
		Bucket:        cfg.Bucket,
		PresignExpiry: time.Duration(cfg.Presign.ExpirySeconds) * time.Second,
		Logger:        logger,
	})
	d.handler = d.newHandler()
	return d
}

func (d *Daemon) Handler() http.Handler {
	return d.handler
}

func (d *Daemon) Run(ctx context.Context) error {
	d.logger.WithFields(logrus.Fields{
		"addr":    d.cfg.Listen,
		"backend": d.cfg.Backend(),
		"bucket":  d.cfg.Bucket,
	}).Info("satcheld listening")

	srv := d.newHTTPServer()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (d *Daemon) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:              d.cfg.Listen,
		Handler:           d.Handler(),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		ReadTimeout:       serverReadTimeout,
		WriteTimeout:      serverWriteTimeout,
		IdleTimeout:       serverIdleTimeout,
		MaxHeaderBytes:    serverMaxHeaderBytes,
	}
}
