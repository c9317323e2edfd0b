package worker

import (
	"context"
	"log"
	"time"

	"FundusCheckout/internal/chain"
)

// RunWS watches the merchant account for finalized activity and runs an
// immediate sweep when payments land, so stale placeholders do not have to
// wait out a full tick.
func (w *Worker) RunWS(ctx context.Context) {
	if w.WSEndpoint == "" {
		log.Printf("ws disabled: ws_endpoint is empty")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		client := chain.NewWSClient(w.WSEndpoint)
		if err := client.Connect(ctx); err != nil {
			log.Printf("ws connect failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}
		log.Printf("ws connected %s", w.WSEndpoint)

		if err := client.SubscribeAccount(ctx, w.MerchantAddress); err != nil {
			log.Printf("ws subscribe failed: %v", err)
			client.Close()
			time.Sleep(3 * time.Second)
			continue
		}

		for {
			msg, err := client.Read(ctx)
			if err != nil {
				log.Printf("ws read failed: %v", err)
				client.Close()
				break
			}

			notified, err := chain.ParseAccountNotification(msg)
			if err != nil {
				log.Printf("ws parse failed: %v", err)
				continue
			}
			if !notified {
				continue
			}

			if err := w.SweepOnce(ctx); err != nil {
				log.Printf("ws sweep failed: %v", err)
			}
		}

		time.Sleep(2 * time.Second)
	}
}
