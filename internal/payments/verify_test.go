package payments

import (
	"errors"
	"testing"

	"FundusCheckout/internal/chain"
)

const merchant = "MerchantAddr11111111111111111111111111111111"

func TestLamportsForSOL(t *testing.T) {
	cases := []struct {
		sol  float64
		want int64
	}{
		{1, 1_000_000_000},
		{0.5, 500_000_000},
		{0.000000001, 1},
		{0.123456789, 123_456_789},
	}
	for _, tc := range cases {
		if got := LamportsForSOL(tc.sol); got != tc.want {
			t.Errorf("LamportsForSOL(%v) = %d, want %d", tc.sol, got, tc.want)
		}
	}
}

func TestVerifyTransfer(t *testing.T) {
	good := &chain.TransactionDetails{
		Transfers: []chain.Transfer{
			{Source: "payer", Destination: "someone-else", Lamports: 999},
			{Source: "payer", Destination: merchant, Lamports: 250_000},
		},
	}

	transfer, err := VerifyTransfer(good, merchant, 250_000)
	if err != nil {
		t.Fatalf("VerifyTransfer: %v", err)
	}
	if transfer.Destination != merchant || transfer.Lamports != 250_000 {
		t.Errorf("unexpected transfer returned: %+v", transfer)
	}
}

func TestVerifyTransferRejects(t *testing.T) {
	toMerchant := func(lamports int64) *chain.TransactionDetails {
		return &chain.TransactionDetails{
			Transfers: []chain.Transfer{{Source: "payer", Destination: merchant, Lamports: lamports}},
		}
	}

	cases := []struct {
		name     string
		details  *chain.TransactionDetails
		expected int64
		want     error
	}{
		{"unknown signature", nil, 100, ErrVerificationFailed},
		{"failed on chain", &chain.TransactionDetails{Failed: true, Transfers: toMerchant(100).Transfers}, 100, ErrVerificationFailed},
		{"no transfer instruction", &chain.TransactionDetails{}, 100, ErrInvalidTransaction},
		{"wrong destination", &chain.TransactionDetails{Transfers: []chain.Transfer{{Destination: "attacker", Lamports: 100}}}, 100, ErrDestinationMismatch},
		{"one lamport short", toMerchant(99), 100, ErrAmountMismatch},
		{"one lamport over", toMerchant(101), 100, ErrAmountMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyTransfer(tc.details, merchant, tc.expected)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}
