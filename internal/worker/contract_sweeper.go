package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/observability/metrics"
)

// ContractSweeper periodically counts natural-person tenants whose contract
// has expired, logs them and publishes the gauge. It is read-only: expiry is
// an operational signal, not an enforcement mechanism.
type ContractSweeper struct {
	tenantRepo domain.TenantRepository
	logger     *slog.Logger
	interval   time.Duration
}

// NewContractSweeper creates a new contract sweeper
func NewContractSweeper(tenantRepo domain.TenantRepository, logger *slog.Logger, interval time.Duration) *ContractSweeper {
	return &ContractSweeper{
		tenantRepo: tenantRepo,
		logger:     logger,
		interval:   interval,
	}
}

// Start begins the sweep loop and blocks until the context is cancelled.
func (w *ContractSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("contract sweeper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("contract sweeper stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *ContractSweeper) sweep() {
	expired, err := w.tenantRepo.CountExpired(time.Now())
	if err != nil {
		w.logger.Error("failed to count expired contracts", slog.String("error", err.Error()))
		return
	}

	metrics.SetExpiredContracts(expired)
	if expired > 0 {
		w.logger.Warn("tenants past contract expiry", slog.Int64("count", expired))
	}
}
