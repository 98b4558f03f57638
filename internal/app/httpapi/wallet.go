package httpapi

import (
	"errors"
	"net/http"

	"github.com/camp-network/marketplace/internal/httputil"
	"github.com/camp-network/marketplace/internal/wallet"
)

// walletHandler exposes the server-held wallet session over HTTP. It is
// mounted only when a wallet RPC endpoint is configured.
type walletHandler struct {
	svc *wallet.Service
}

func (h *walletHandler) state(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.State())
}

func (h *walletHandler) connect(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Connect(r.Context())
	if err != nil {
		httputil.WriteError(w, walletStatus(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *walletHandler) disconnect(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.Disconnect())
}

type switchChainRequest struct {
	ChainID uint64 `json:"chain_id"`
}

func (h *walletHandler) switchChain(w http.ResponseWriter, r *http.Request) {
	var req switchChainRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	state, err := h.svc.SwitchChain(r.Context(), req.ChainID)
	if err != nil {
		httputil.WriteError(w, walletStatus(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

type signMessageRequest struct {
	Message string `json:"message"`
}

func (h *walletHandler) signMessage(w http.ResponseWriter, r *http.Request) {
	var req signMessageRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if req.Message == "" {
		httputil.WriteError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	sig, err := h.svc.SignMessage(r.Context(), []byte(req.Message))
	if err != nil {
		httputil.WriteError(w, walletStatus(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"signature": sig})
}

func walletStatus(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.Is(err, wallet.ErrUserRejected), errors.Is(err, wallet.ErrUnknownChain):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
