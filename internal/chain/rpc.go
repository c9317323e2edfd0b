package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type RPCClient struct {
	baseURL string
	client  *http.Client
}

func NewRPCClient(baseURL string) *RPCClient {
	return &RPCClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (string, error) {
	var resp struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight int64  `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	params := []any{map[string]any{"commitment": "finalized"}}
	if err := c.call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return "", err
	}
	if resp.Value.Blockhash == "" {
		return "", fmt.Errorf("rpc returned empty blockhash")
	}
	return resp.Value.Blockhash, nil
}

// GetTransaction fetches a finalized transaction by signature with parsed
// instructions. Returns (nil, nil) when the network does not know the
// signature; deciding whether that is retryable is the caller's business.
func (c *RPCClient) GetTransaction(ctx context.Context, signature string) (*TransactionDetails, error) {
	params := []any{signature, map[string]any{
		"encoding":                       "jsonParsed",
		"commitment":                     "finalized",
		"maxSupportedTransactionVersion": 0,
	}}
	var raw json.RawMessage
	if err := c.call(ctx, "getTransaction", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return parseTransaction(raw)
}

// SendTransaction relays a signed, base64-encoded transaction and returns
// the network-assigned signature.
func (c *RPCClient) SendTransaction(ctx context.Context, signedBase64 string) (string, error) {
	params := []any{signedBase64, map[string]any{"encoding": "base64"}}
	var sig string
	if err := c.call(ctx, "sendTransaction", params, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(b))
		if msg != "" {
			return fmt.Errorf("rpc http status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("rpc http status %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}
	if out != nil {
		return json.Unmarshal(envelope.Result, out)
	}
	return nil
}

// RPC response types

type txResponse struct {
	Slot        int64           `json:"slot"`
	BlockTime   *int64          `json:"blockTime"`
	Version     json.RawMessage `json:"version"`
	Meta        *txMeta         `json:"meta"`
	Transaction struct {
		Message struct {
			Instructions []json.RawMessage `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

type txMeta struct {
	Err json.RawMessage `json:"err"`
}

type parsedInstruction struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Source      string `json:"source"`
			Destination string `json:"destination"`
			Lamports    int64  `json:"lamports"`
		} `json:"info"`
	} `json:"parsed"`
}

// Parsed types

type TransactionDetails struct {
	Slot      int64
	BlockTime time.Time
	Version   string
	Failed    bool
	Transfers []Transfer
}

// Transfer is one system-program transfer instruction found in a
// transaction, amounts in lamports.
type Transfer struct {
	Source      string
	Destination string
	Lamports    int64
}

func parseTransaction(raw json.RawMessage) (*TransactionDetails, error) {
	var resp txResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	details := &TransactionDetails{
		Slot:    resp.Slot,
		Version: decodeVersion(resp.Version),
	}
	if resp.BlockTime != nil {
		details.BlockTime = time.Unix(*resp.BlockTime, 0).UTC()
	}
	if resp.Meta != nil && len(resp.Meta.Err) > 0 && string(resp.Meta.Err) != "null" {
		details.Failed = true
	}

	// jsonParsed yields the same parsed shape for legacy and versioned
	// messages; instructions the node cannot parse stay opaque and are
	// skipped here.
	for _, rawIx := range resp.Transaction.Message.Instructions {
		var ix parsedInstruction
		if err := json.Unmarshal(rawIx, &ix); err != nil {
			continue
		}
		if ix.Program != "system" || ix.Parsed.Type != "transfer" {
			continue
		}
		details.Transfers = append(details.Transfers, Transfer{
			Source:      ix.Parsed.Info.Source,
			Destination: ix.Parsed.Info.Destination,
			Lamports:    ix.Parsed.Info.Lamports,
		})
	}
	return details, nil
}

// decodeVersion normalizes the version field, which the RPC encodes as the
// string "legacy" or a bare number for versioned messages.
func decodeVersion(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "legacy"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("v%d", n)
	}
	return "legacy"
}
