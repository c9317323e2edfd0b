package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"FundusCheckout/internal/chain"
)

// ErrRateUnavailable means no fresh quote could be fetched. There is no
// fallback rate: pricing a real transfer off a stale or default number is
// worse than aborting checkout.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

type Service struct {
	FeedURL string
	Client  *http.Client
}

func NewService(feedURL string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		FeedURL: feedURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// USDPerSOL fetches the latest quote from the configured feed
// (CoinGecko-shaped: {"solana":{"usd":142.35}}).
func (s *Service) USDPerSOL(ctx context.Context) (*big.Rat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: feed http status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body struct {
		Solana struct {
			USD json.Number `json:"usd"`
		} `json:"solana"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	rate, ok := new(big.Rat).SetString(body.Solana.USD.String())
	if !ok || rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: bad quote %q", ErrRateUnavailable, body.Solana.USD)
	}
	return rate, nil
}

// LamportsForUSDCents converts a fiat amount to lamports at the given rate,
// rounding half up. All arithmetic is rational; the only quantization is
// this final rounding to a whole smallest unit.
func LamportsForUSDCents(cents int64, usdPerSOL *big.Rat) (int64, error) {
	if cents <= 0 {
		return 0, errors.New("amount must be positive")
	}
	if usdPerSOL == nil || usdPerSOL.Sign() <= 0 {
		return 0, errors.New("rate must be positive")
	}

	// lamports = cents/100 / rate * LamportsPerSOL
	amount := new(big.Rat).SetFrac64(cents, 100)
	amount.Mul(amount, new(big.Rat).SetInt64(chain.LamportsPerSOL))
	amount.Quo(amount, usdPerSOL)

	// round half up
	amount.Add(amount, big.NewRat(1, 2))
	lamports := new(big.Int).Quo(amount.Num(), amount.Denom())
	if !lamports.IsInt64() || lamports.Int64() <= 0 {
		return 0, errors.New("converted amount out of range")
	}
	return lamports.Int64(), nil
}
