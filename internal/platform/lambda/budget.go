package lambda

import (
	"context"
	"log/slog"
	"time"
)

// IntegrationTimeout is API Gateway's limit for a REST proxy integration.
// A request still running after it gets a 504 from the gateway, whatever the
// handler answers later.
const IntegrationTimeout = 29 * time.Second

// CheckRequestBudget logs a warning when budget exceeds IntegrationTimeout
// and reports whether it does. Lower automation.max_poll_attempts or the
// request timeouts to bring the budget under the gateway limit.
func CheckRequestBudget(ctx context.Context, logger *slog.Logger, budget time.Duration) bool {
	if budget <= IntegrationTimeout {
		return false
	}

	logger.WarnContext(ctx, "request budget exceeds the API Gateway integration timeout; slow tasks will end in a gateway 504",
		"request_budget", budget.String(),
		"integration_timeout", IntegrationTimeout.String())
	return true
}
