package lambda

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/balance-proxy/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestCheckRequestBudget(t *testing.T) {
	tests := []struct {
		name     string
		budget   time.Duration
		wantWarn bool
	}{
		{name: "well under the limit", budget: 10 * time.Second},
		{name: "exactly the limit", budget: IntegrationTimeout},
		{name: "default poll budget", budget: 10*time.Second + 15*time.Second + 30*15*time.Second + 29*1500*time.Millisecond, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := logger.GetTestLogger(t)

			got := CheckRequestBudget(context.Background(), log, tt.budget)

			assert.Equal(t, tt.wantWarn, got)
			if tt.wantWarn {
				logger.AssertLogContains(t, buf, "exceeds the API Gateway integration timeout")
				logger.AssertLogContains(t, buf, `"level":"WARN"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
