package worker

import (
	"context"
	"log"
	"time"

	"FundusCheckout/internal/metrics"
	"FundusCheckout/internal/models"
	"FundusCheckout/internal/store"
)

// Worker reconciles the gap the two-call checkout leaves open: a client
// that confirmed a payment but never materialized the order strands a
// zero-total placeholder. The sweep cancels those once they are older than
// ReconcileAfter and fails their linked payment rows.
type Worker struct {
	Store           *store.Store
	ReconcileAfter  time.Duration
	Interval        time.Duration
	WSEndpoint      string
	MerchantAddress string
}

func (w *Worker) Run(ctx context.Context) {
	go w.RunWS(ctx)
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if err := w.SweepOnce(ctx); err != nil {
			log.Printf("sweep error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.ReconcileAfter)
	orders, err := w.Store.ListStalePlaceholderOrders(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	log.Printf("sweep cutoff=%s stale=%d", cutoff.Format(time.RFC3339), len(orders))
	for _, order := range orders {
		cancelled, err := w.Store.CancelPlaceholderOrder(ctx, order.ID)
		if err != nil {
			log.Printf("cancel order %s failed: %v", order.ID, err)
			continue
		}
		if cancelled {
			metrics.ReconciledOrders.Inc()
			log.Printf("order %s -> %s (stale placeholder)", order.ID, models.OrderCancelled)
		}
	}
	return nil
}
