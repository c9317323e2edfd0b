package services

import (
	"context"
	"errors"
	"log"
	"math/big"
	"time"

	"FundusCheckout/internal/chain"
	"FundusCheckout/internal/models"
	"FundusCheckout/internal/payments"
	"FundusCheckout/internal/pricing"
	"FundusCheckout/internal/store"
)

// ErrNoWalletAddress is user-recoverable: the customer has to register a
// wallet address before paying on-chain.
var ErrNoWalletAddress = errors.New("no wallet address on account")

type ChainClient interface {
	LatestBlockhash(ctx context.Context) (string, error)
	GetTransaction(ctx context.Context, signature string) (*chain.TransactionDetails, error)
	SendTransaction(ctx context.Context, signedBase64 string) (string, error)
}

type RateSource interface {
	USDPerSOL(ctx context.Context) (*big.Rat, error)
}

type PaymentStore interface {
	GetCustomer(ctx context.Context, accountID string) (*models.Customer, error)
	UpdateWalletAddress(ctx context.Context, accountID, address string) error
	CreatePaymentWithOrder(ctx context.Context, customerID string, amountUSDCents, amountLamports int64, signature string) (string, string, error)
}

type PaymentService struct {
	Store           PaymentStore
	Chain           ChainClient
	Rates           RateSource
	MerchantAddress string
	ConfirmTimeout  time.Duration
}

// Intent is an unsigned transfer plus the quoted token amount. Nothing is
// persisted for an intent; an abandoned one needs no cleanup.
type Intent struct {
	TransactionBase64 string
	AmountSOL         float64
	Lamports          int64
}

// CreateIntent builds the unsigned transfer the customer's wallet must
// sign: fresh rate, fresh blockhash, customer's registered address as
// payer. walletAddress, when given, updates the registration first.
func (s PaymentService) CreateIntent(ctx context.Context, customerID string, amountUSDCents int64, walletAddress string) (*Intent, error) {
	if walletAddress != "" {
		if _, err := chain.DecodeAddress(walletAddress); err != nil {
			return nil, err
		}
		if err := s.Store.UpdateWalletAddress(ctx, customerID, walletAddress); err != nil {
			return nil, err
		}
	}

	customer, err := s.Store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.WalletAddress == nil || *customer.WalletAddress == "" {
		return nil, ErrNoWalletAddress
	}

	rate, err := s.Rates.USDPerSOL(ctx)
	if err != nil {
		return nil, err
	}
	lamports, err := pricing.LamportsForUSDCents(amountUSDCents, rate)
	if err != nil {
		return nil, err
	}

	blockhash, err := s.Chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	txBase64, err := chain.BuildTransferTransaction(lamports, *customer.WalletAddress, s.MerchantAddress, blockhash)
	if err != nil {
		return nil, err
	}

	return &Intent{
		TransactionBase64: txBase64,
		AmountSOL:         float64(lamports) / chain.LamportsPerSOL,
		Lamports:          lamports,
	}, nil
}

// ConfirmPayment verifies a finalized transfer against the merchant address
// and the exact expected lamports, then records the payment and its
// placeholder order in one store transaction. The chain wait is bounded by
// ConfirmTimeout and finishes before any store transaction starts.
func (s PaymentService) ConfirmPayment(ctx context.Context, customerID, signature string, amountUSDCents int64, amountSOL float64) (orderID, transactionID string, err error) {
	expected := payments.LamportsForSOL(amountSOL)
	if expected <= 0 {
		return "", "", payments.ErrAmountMismatch
	}

	timeout := s.ConfirmTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	chainCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	details, err := s.Chain.GetTransaction(chainCtx, signature)
	if err != nil {
		log.Printf("payment verify: fetch failed sig=%s: %v", signature, err)
		return "", "", payments.ErrVerificationFailed
	}

	if _, err := payments.VerifyTransfer(details, s.MerchantAddress, expected); err != nil {
		// Full detail stays server-side; the handler returns a generic
		// failure for these.
		log.Printf("payment verify: rejected sig=%s customer=%s expected=%d: %v", signature, customerID, expected, err)
		return "", "", err
	}

	orderID, transactionID, err = s.Store.CreatePaymentWithOrder(ctx, customerID, amountUSDCents, expected, signature)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSignature) {
			log.Printf("payment verify: replayed sig=%s customer=%s", signature, customerID)
		}
		return "", "", err
	}
	return orderID, transactionID, nil
}

// SubmitSigned relays a wallet-signed transaction to the chain and returns
// the network signature. The server never holds keys; this is a plain relay
// for wallets without their own RPC access.
func (s PaymentService) SubmitSigned(ctx context.Context, signedBase64 string) (string, error) {
	return s.Chain.SendTransaction(ctx, signedBase64)
}
