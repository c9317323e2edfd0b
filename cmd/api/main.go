package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FundusCheckout/internal/chain"
	"FundusCheckout/internal/config"
	"FundusCheckout/internal/db"
	internalhttp "FundusCheckout/internal/http"
	"FundusCheckout/internal/pricing"
	"FundusCheckout/internal/services"
	"FundusCheckout/internal/store"
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

	st := store.New(pool)
	rpc, err := chain.NewMultiRPCClient(cfg.Chain.RPCEndpoints, cfg.Chain.FailoverThreshold)
	if err != nil {
		log.Fatalf("chain client failed: %v", err)
	}
	log.Printf("chain rpc: %s", rpc.BaseURL())
	rates := pricing.NewService(cfg.Pricing.FeedURL, time.Duration(cfg.Pricing.TimeoutSeconds)*time.Second)

	carts := services.CartService{Store: st}
	orders := services.OrderService{Store: st}
	paymentsSvc := services.PaymentService{
		Store:           st,
		Chain:           rpc,
		Rates:           rates,
		MerchantAddress: cfg.Chain.MerchantAddress,
		ConfirmTimeout:  time.Duration(cfg.Chain.ConfirmTimeoutSec) * time.Second,
	}

	h := internalhttp.NewHandler(carts, orders, paymentsSvc)
	srv := internalhttp.NewServer(h, st)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
