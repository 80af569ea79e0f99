package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/internal/telemetry"
	"github.com/hyperledger-labs/yui-remote-signer/log"
	"github.com/hyperledger-labs/yui-remote-signer/signers/vault"
)

type signRequest struct {
	Message []byte `json:"message"`
}

type signResponse struct {
	Signature []byte `json:"signature"`
}

type pubKeyResponse struct {
	PublicKey []byte `json:"public_key"`
	Address   string `json:"address"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (srv *SignService) newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pubkey", srv.handlePubKey)
	mux.HandleFunc("/v1/sign", srv.handleSign)
	mux.HandleFunc("/healthz", srv.handleHealthz)
	return mux
}

func (srv *SignService) handlePubKey(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().WithModule("server")
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), srv.timeout)
	defer cancel()

	pubKey, err := core.ConsensusPubKey(ctx, srv.signer)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get the public key", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, pubKeyResponse{
		PublicKey: pubKey.Bytes(),
		Address:   pubKey.Address().String(),
	})
}

func (srv *SignService) handleSign(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().WithModule("server")
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), srv.timeout)
	defer cancel()

	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode the request body: %v", err))
		return
	}
	telemetry.SignRequestsCounter.Add(ctx, 1)
	start := time.Now()
	signature, err := srv.signer.Sign(ctx, req.Message)
	if err != nil {
		telemetry.SignErrorsCounter.Add(ctx, 1)
		logger.ErrorContext(ctx, "failed to sign the message", err, "message_size", len(req.Message))
		writeError(w, statusFor(err), err)
		return
	}
	telemetry.SignDurationHistogram.Record(ctx, time.Since(start).Seconds()*1000)
	writeJSON(w, http.StatusOK, signResponse{Signature: signature})
}

// handleHealthz reports whether the signer backend answers a public key
// fetch. The key is cached by the backend, so the probe is cheap once the
// first fetch succeeded.
func (srv *SignService) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), srv.timeout)
	defer cancel()

	if _, err := core.ConsensusPubKey(ctx, srv.signer); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps signer errors to HTTP status codes. Backend availability
// problems become 502 so that the caller can tell them apart from rejected
// requests.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vault.ErrEmptyMessage), errors.Is(err, vault.ErrOversizedMessage):
		return http.StatusBadRequest
	case errors.Is(err, vault.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().WithModule("server").Error("failed to encode the response", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
