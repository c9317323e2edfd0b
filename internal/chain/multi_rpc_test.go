package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiRPCFailsOver(t *testing.T) {
	var downHits atomic.Int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downHits.Add(1)
		http.Error(w, "node down", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	up := rpcServer(t, map[string]string{
		"getLatestBlockhash": `{"value":{"blockhash":"GoodHash","lastValidBlockHeight":1}}`,
	})
	defer up.Close()

	client, err := NewMultiRPCClient([]string{down.URL, up.URL}, 3)
	require.NoError(t, err)

	hash, err := client.LatestBlockhash(context.Background())
	require.NoError(t, err)
	require.Equal(t, "GoodHash", hash)
	require.Equal(t, int32(1), downHits.Load())

	// The rotation sticks: the next call goes straight to the healthy node.
	_, err = client.LatestBlockhash(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), downHits.Load())
}

func TestMultiRPCAllDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node down", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	client, err := NewMultiRPCClient([]string{down.URL}, 3)
	require.NoError(t, err)

	_, err = client.LatestBlockhash(context.Background())
	require.Error(t, err)
}

func TestNewMultiRPCClientSanitizes(t *testing.T) {
	client, err := NewMultiRPCClient([]string{" https://a.example/ ", "", "https://a.example"}, 0)
	require.NoError(t, err)
	require.Len(t, client.clients, 1)

	_, err = NewMultiRPCClient([]string{"", "  "}, 3)
	require.Error(t, err)
}
