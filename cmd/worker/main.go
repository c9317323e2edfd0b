package main

import (
	"context"
	"log"
	"time"

	"FundusCheckout/internal/chain"
	"FundusCheckout/internal/config"
	"FundusCheckout/internal/db"
	"FundusCheckout/internal/store"
	"FundusCheckout/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	wsEndpoint := ""
	if len(cfg.Chain.WSEndpoints) > 0 {
		wsEndpoint = cfg.Chain.WSEndpoints[0]
	} else if len(cfg.Chain.RPCEndpoints) > 0 {
		wsEndpoint = chain.DefaultWSEndpoint(cfg.Chain.RPCEndpoints[0])
	}
	if wsEndpoint != "" {
		log.Printf("ws endpoint: %s", wsEndpoint)
	}

	interval := time.Duration(cfg.Worker.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	reconcileAfter := time.Duration(cfg.Orders.ReconcileAfterMinutes) * time.Minute
	if reconcileAfter <= 0 {
		reconcileAfter = 30 * time.Minute
	}

	w := &worker.Worker{
		Store:           store.New(pool),
		ReconcileAfter:  reconcileAfter,
		Interval:        interval,
		WSEndpoint:      wsEndpoint,
		MerchantAddress: cfg.Chain.MerchantAddress,
	}

	log.Printf("worker started (reconcile_after=%s interval=%s)", reconcileAfter, interval)
	w.Run(ctx)
}
