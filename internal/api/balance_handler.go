package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/balance-proxy/internal/api/shared"
	"github.com/phrazzld/balance-proxy/internal/domain"
	"github.com/phrazzld/balance-proxy/internal/platform/logger"
	"github.com/phrazzld/balance-proxy/internal/service"
)

// BalanceHandler serves the balance endpoint.
type BalanceHandler struct {
	balanceService service.BalanceService
	logger         *slog.Logger
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceService service.BalanceService, logger *slog.Logger) *BalanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BalanceHandler{
		balanceService: balanceService,
		logger:         logger.With(slog.String("component", "balance_handler")),
	}
}

// GetBalance handles POST /api/balance.
//
// The body must be JSON carrying a non-blank userName or userId. The handler
// runs the whole pipeline synchronously and answers exactly once:
//   - 200 {"balance": ...} when the task completed with a usable number
//   - 400 when the body is missing, malformed or names nobody
//   - 500 with a generic message for every downstream failure
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req BalanceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, MsgInvalidRequest,
			fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	req.normalize()
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, MsgInvalidRequest,
			fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	if sessionUserID, ok := shared.GetSessionUserID(r.Context()); ok {
		log = log.With("session_user_id", sessionUserID)
	}
	log.InfoContext(r.Context(), "balance requested",
		"by_name", req.UserName != "",
		"user_id", req.UserID)

	result, err := h.balanceService.GetBalance(r.Context(), service.BalanceRequest{
		UserName: req.UserName,
		UserID:   req.UserID,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BalanceResponse{Balance: result.Balance})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
