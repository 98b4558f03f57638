// Package httpapi exposes the marketplace REST API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/camp-network/marketplace/internal/analytics"
	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/camper"
	domainrwa "github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/domain/sponsor"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/metrics"
	"github.com/camp-network/marketplace/internal/app/services/campers"
	"github.com/camp-network/marketplace/internal/app/services/market"
	"github.com/camp-network/marketplace/internal/app/services/rwa"
	"github.com/camp-network/marketplace/internal/app/services/sponsors"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/internal/auth"
	"github.com/camp-network/marketplace/internal/docstore"
	"github.com/camp-network/marketplace/internal/httputil"
	"github.com/camp-network/marketplace/internal/wallet"
	"github.com/camp-network/marketplace/pkg/logger"
)

var errLoginRequired = errors.New("login required")

// Services bundles the application services served by the API. Wallet
// and Tracker are optional; wallet routes are mounted only when the
// service is set, and a nil tracker disables event delivery.
type Services struct {
	Market   *market.Service
	Campers  *campers.Service
	Sponsors *sponsors.Service
	RWA      *rwa.Service
	Wallet   *wallet.Service
	Tracker  *analytics.Tracker
}

type handler struct {
	svc Services
	log *logger.Logger
}

func (h *handler) track(name string, properties map[string]any) {
	if h.svc.Tracker != nil {
		h.svc.Tracker.Track(name, properties)
	}
}

// NewHandler returns the API router. authMW may be nil in tests; requests
// then run unauthenticated and user-scoped endpoints return 401.
func NewHandler(svc Services, authMW *auth.Middleware, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{svc: svc, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/agents", h.listAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents", h.createAgent).Methods(http.MethodPost)
	api.HandleFunc("/agents/trending", h.trendingAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents/spotlight", h.spotlightAgent).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}", h.getAgent).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}/buy", h.buyAgent).Methods(http.MethodPost)
	api.HandleFunc("/agents/{id}/sell", h.sellAgent).Methods(http.MethodPost)

	api.HandleFunc("/portfolio", h.portfolio).Methods(http.MethodGet)
	api.HandleFunc("/transactions", h.transactions).Methods(http.MethodGet)

	api.HandleFunc("/campers", h.listCampers).Methods(http.MethodGet)
	api.HandleFunc("/campers", h.createCamper).Methods(http.MethodPost)
	api.HandleFunc("/campers/{id}", h.getCamper).Methods(http.MethodGet)
	api.HandleFunc("/campers/{id}/sponsor", h.sponsorCamper).Methods(http.MethodPost)

	api.HandleFunc("/sponsors", h.createSponsor).Methods(http.MethodPost)
	api.HandleFunc("/sponsors", h.listSponsors).Methods(http.MethodGet)
	api.HandleFunc("/sponsors/{id}/status", h.setSponsorStatus).Methods(http.MethodPatch)

	api.HandleFunc("/rwa", h.listListings).Methods(http.MethodGet)
	api.HandleFunc("/rwa", h.createListing).Methods(http.MethodPost)
	api.HandleFunc("/rwa/{id}", h.getListing).Methods(http.MethodGet)

	if svc.Wallet != nil {
		wh := &walletHandler{svc: svc.Wallet}
		api.HandleFunc("/wallet/state", wh.state).Methods(http.MethodGet)
		api.HandleFunc("/wallet/connect", wh.connect).Methods(http.MethodPost)
		api.HandleFunc("/wallet/disconnect", wh.disconnect).Methods(http.MethodPost)
		api.HandleFunc("/wallet/chain", wh.switchChain).Methods(http.MethodPost)
		api.HandleFunc("/wallet/sign", wh.signMessage).Methods(http.MethodPost)
	}

	var root http.Handler = r
	if authMW != nil {
		root = authMW.Handler(root)
	}
	return metrics.InstrumentHandler(root)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- agents ----

func (h *handler) listAgents(w http.ResponseWriter, r *http.Request) {
	q := storage.AgentQuery{
		Status: agent.Status(r.URL.Query().Get("status")),
		SortBy: agent.SortKey(r.URL.Query().Get("sort")),
		Limit:  queryInt(r, "limit"),
	}
	agents, err := h.svc.Market.ListAgents(r.Context(), q)
	if err != nil {
		h.serverError(w, err, "failed to list agents")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, agents)
}

func (h *handler) trendingAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.svc.Market.TrendingAgents(r.Context())
	if err != nil {
		h.serverError(w, err, "failed to list trending agents")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, agents)
}

func (h *handler) spotlightAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Market.SpotlightAgent(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusOK, nil)
			return
		}
		h.serverError(w, err, "failed to load spotlight agent")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *handler) getAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Market.GetAgent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *handler) createAgent(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		httputil.WriteError(w, http.StatusUnauthorized, errLoginRequired)
		return
	}

	var input market.CreateAgentInput
	if err := httputil.DecodeJSON(r.Body, &input); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	input.CreatorID = user.ID
	if input.CreatorName == "" {
		input.CreatorName = user.Email
	}

	created, err := h.svc.Market.CreateAgent(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	metrics.RecordAgentCreated()
	h.track("agent_created", map[string]any{"agent_id": created.ID, "symbol": created.Symbol})
	httputil.WriteJSON(w, http.StatusCreated, created)
}

type tradeRequest struct {
	Amount string `json:"amount"`
}

func (h *handler) buyAgent(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.svc.Market.Buy, "buy")
}

func (h *handler) sellAgent(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.svc.Market.Sell, "sell")
}

func (h *handler) trade(w http.ResponseWriter, r *http.Request, exec func(ctx context.Context, userID, agentID, amount string) (trade.Transaction, error), kind string) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		httputil.WriteError(w, http.StatusUnauthorized, errLoginRequired)
		return
	}

	var req tradeRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := exec(r.Context(), userID, mux.Vars(r)["id"], req.Amount)
	if err != nil {
		metrics.RecordTrade(kind, "rejected")
		writeStoreError(w, err)
		return
	}
	metrics.RecordTrade(kind, "completed")
	h.track("trade_executed", map[string]any{
		"agent_id": tx.AgentID,
		"type":     kind,
		"total":    tx.TotalValue,
	})
	httputil.WriteJSON(w, http.StatusCreated, tx)
}

func (h *handler) portfolio(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		httputil.WriteError(w, http.StatusUnauthorized, errLoginRequired)
		return
	}
	p, err := h.svc.Market.Portfolio(r.Context(), userID)
	if err != nil {
		h.serverError(w, err, "failed to load portfolio")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		httputil.WriteError(w, http.StatusUnauthorized, errLoginRequired)
		return
	}
	txs, err := h.svc.Market.Transactions(r.Context(), userID, queryInt(r, "limit"))
	if err != nil {
		h.serverError(w, err, "failed to load transactions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}

// ---- campers ----

func (h *handler) listCampers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Campers.List(r.Context(), camper.Status(r.URL.Query().Get("status")), queryInt(r, "limit"))
	if err != nil {
		h.serverError(w, err, "failed to list campers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getCamper(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Campers.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) createCamper(w http.ResponseWriter, r *http.Request) {
	var input campers.CreateInput
	if err := httputil.DecodeJSON(r.Body, &input); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.svc.Campers.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

type sponsorCamperRequest struct {
	Amount float64 `json:"amount"`
}

// sponsorCamper records a contribution against a camper's goal and, when
// the caller is authenticated, creates the matching sponsor record.
func (h *handler) sponsorCamper(w http.ResponseWriter, r *http.Request) {
	var req sponsorCamperRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.svc.Campers.RecordSponsorship(r.Context(), mux.Vars(r)["id"], req.Amount)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if user := auth.UserFromContext(r.Context()); user != nil {
		if _, err := h.svc.Sponsors.Create(r.Context(), sponsors.CreateInput{
			UserID:   user.ID,
			Name:     user.Email,
			Email:    user.Email,
			Amount:   req.Amount,
			CamperID: updated.ID,
		}); err != nil {
			h.log.WithError(err).Warn("sponsor record not created")
		}
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

// ---- sponsors ----

func (h *handler) createSponsor(w http.ResponseWriter, r *http.Request) {
	var input sponsors.CreateInput
	if err := httputil.DecodeJSON(r.Body, &input); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if input.UserID == "" {
		input.UserID = auth.UserID(r.Context())
	}
	created, err := h.svc.Sponsors.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) listSponsors(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = auth.UserID(r.Context())
	}
	if userID == "" {
		httputil.WriteError(w, http.StatusUnauthorized, errLoginRequired)
		return
	}
	list, err := h.svc.Sponsors.ListByUser(r.Context(), userID)
	if err != nil {
		h.serverError(w, err, "failed to list sponsors")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

type sponsorStatusRequest struct {
	Status sponsor.Status `json:"status"`
}

func (h *handler) setSponsorStatus(w http.ResponseWriter, r *http.Request) {
	var req sponsorStatusRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.svc.Sponsors.SetStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// ---- rwa ----

func (h *handler) listListings(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.RWA.List(r.Context(), domainrwa.Status(r.URL.Query().Get("status")), queryInt(r, "limit"))
	if err != nil {
		h.serverError(w, err, "failed to list rwa listings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) createListing(w http.ResponseWriter, r *http.Request) {
	if auth.UserID(r.Context()) == "" {
		httputil.WriteError(w, http.StatusUnauthorized, errLoginRequired)
		return
	}
	var input rwa.CreateInput
	if err := httputil.DecodeJSON(r.Body, &input); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.svc.RWA.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.RWA.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

// ---- helpers ----

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeStoreError(w http.ResponseWriter, err error) {
	var apiErr *docstore.APIError
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &apiErr):
		// Backend trouble, not a caller mistake.
		status = http.StatusBadGateway
	}
	httputil.WriteError(w, status, err)
}

// serverError distinguishes upstream backend failures from our own.
func (h *handler) serverError(w http.ResponseWriter, err error, msg string) {
	h.log.WithError(err).Error(msg)
	var apiErr *docstore.APIError
	if errors.As(err, &apiErr) {
		httputil.WriteError(w, http.StatusBadGateway, err)
		return
	}
	httputil.InternalError(w, msg)
}
