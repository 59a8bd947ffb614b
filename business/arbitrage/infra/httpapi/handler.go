// Package httpapi mounts the scanner control and inspection routes on the
// health server's router.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/health"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

const scanTimeout = 2 * time.Minute

// CycleRunner runs on-demand cycles and exposes the last completed one.
type CycleRunner interface {
	RunCycle(ctx context.Context, tier domain.Tier) (*domain.CycleReport, error)
	LastReport() (*domain.CycleReport, bool)
}

// EndpointSource snapshots the RPC pool.
type EndpointSource interface {
	Snapshot() []poolDomain.Status
}

// NetworkSource exposes the network monitor verdict.
type NetworkSource interface {
	Health() netDomain.Health
}

// Handler serves /scan, /opportunities, /endpoints and /network.
type Handler struct {
	runner    CycleRunner
	endpoints EndpointSource
	network   NetworkSource
	logger    logger.LoggerInterface
}

// New creates a Handler.
func New(runner CycleRunner, endpoints EndpointSource, network NetworkSource, log logger.LoggerInterface) *Handler {
	return &Handler{runner: runner, endpoints: endpoints, network: network, logger: log}
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/scan", h.handleScan).Methods(http.MethodPost)
	r.HandleFunc("/opportunities", h.handleOpportunities).Methods(http.MethodGet)
	r.HandleFunc("/endpoints", h.handleEndpoints).Methods(http.MethodGet)
	r.HandleFunc("/network", h.handleNetwork).Methods(http.MethodGet)
}

type scanResponse struct {
	Error  any                 `json:"error,omitempty"`
	Report *domain.CycleReport `json:"report,omitempty"`
}

// handleScan runs one cycle of ?tier= (default all). The request waits for
// the cycle; a busy scanner answers 409 immediately.
func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	tier, err := domain.ParseTier(r.URL.Query().Get("tier"))
	if err != nil {
		writeError(w, err)
		return
	}

	// A dropped client does not cut the cycle short.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), scanTimeout)
	defer cancel()

	report, err := h.runner.RunCycle(ctx, tier)
	if err != nil {
		h.logger.Info(ctx, "manual scan skipped", "tier", tier.String(), "error", err)
		appErr := apperror.Wrap(err, apperror.CodeInternalError, "")
		health.WriteJSON(w, appErr.StatusCode, scanResponse{Error: appErr.ToResponse()["error"], Report: report})
		return
	}

	h.logger.Info(ctx, "manual scan finished", "tier", tier.String(), "accepted", len(report.Opportunities))
	health.WriteJSON(w, http.StatusOK, scanResponse{Report: report})
}

func (h *Handler) handleOpportunities(w http.ResponseWriter, _ *http.Request) {
	report, ok := h.runner.LastReport()
	if !ok {
		writeError(w, apperror.New(apperror.CodeNotFound, apperror.WithContext("no completed cycle yet")))
		return
	}
	health.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleEndpoints(w http.ResponseWriter, _ *http.Request) {
	health.WriteJSON(w, http.StatusOK, h.endpoints.Snapshot())
}

func (h *Handler) handleNetwork(w http.ResponseWriter, _ *http.Request) {
	hl := h.network.Health()
	health.WriteJSON(w, http.StatusOK, struct {
		netDomain.Health
		GasPriceGwei string `json:"gas_price_gwei"`
	}{hl, hl.GasPriceGwei().String()})
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperror.Wrap(err, apperror.CodeInternalError, "")
	health.WriteJSON(w, appErr.StatusCode, appErr.ToResponse())
}
