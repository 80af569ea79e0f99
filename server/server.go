package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// StartService starts a signing service
func StartService(ctx context.Context, signer core.Signer, listenAddr string, timeout time.Duration) error {
	srv := NewSignService(signer, listenAddr, timeout)
	return srv.Start(ctx)
}

// SignService exposes a signer over a small HTTP JSON API.
type SignService struct {
	signer     core.Signer
	listenAddr string
	timeout    time.Duration
}

// NewSignService returns a new service
func NewSignService(signer core.Signer, listenAddr string, timeout time.Duration) *SignService {
	return &SignService{
		signer:     signer,
		listenAddr: listenAddr,
		timeout:    timeout,
	}
}

// Start starts the signing service and blocks until ctx is canceled or the
// server fails.
func (srv *SignService) Start(ctx context.Context) error {
	logger := log.GetLogger().WithModule("server")
	httpServer := &http.Server{
		Addr:    srv.listenAddr,
		Handler: srv.newMux(),
	}
	var eg errgroup.Group
	eg.Go(func() error {
		logger.InfoContext(ctx, "signing service is listening", "listen_addr", srv.listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down the signing service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
