package payments

import (
	"errors"
	"math"

	"FundusCheckout/internal/chain"
)

var (
	// ErrVerificationFailed covers "the network does not know this
	// signature (yet)" and failed transactions. Retryable from the
	// caller's point of view.
	ErrVerificationFailed = errors.New("transaction could not be verified")

	// ErrInvalidTransaction means the transaction finalized but carries no
	// system transfer instruction to check.
	ErrInvalidTransaction = errors.New("no transfer instruction in transaction")

	ErrDestinationMismatch = errors.New("transfer destination does not match merchant")
	ErrAmountMismatch      = errors.New("transfer amount does not match expected lamports")
)

// LamportsForSOL quantizes a token amount to whole lamports, the same
// rounding the intent builder used to produce the amount.
func LamportsForSOL(amountSOL float64) int64 {
	return int64(math.Round(amountSOL * chain.LamportsPerSOL))
}

// VerifyTransfer checks a fetched transaction against the configured
// merchant address and the exact expected lamport amount. This is the only
// guard between an attacker-supplied signature and order creation, so any
// mismatch fails closed: no partial or approximate matches.
func VerifyTransfer(details *chain.TransactionDetails, merchant string, expectedLamports int64) (chain.Transfer, error) {
	if details == nil || details.Failed {
		return chain.Transfer{}, ErrVerificationFailed
	}
	if len(details.Transfers) == 0 {
		return chain.Transfer{}, ErrInvalidTransaction
	}

	// A transaction may bundle several transfers; only one to the merchant
	// counts.
	var toMerchant *chain.Transfer
	for i := range details.Transfers {
		if details.Transfers[i].Destination == merchant {
			toMerchant = &details.Transfers[i]
			break
		}
	}
	if toMerchant == nil {
		return chain.Transfer{}, ErrDestinationMismatch
	}
	if toMerchant.Lamports != expectedLamports {
		return chain.Transfer{}, ErrAmountMismatch
	}
	return *toMerchant, nil
}
