package chain

import "testing"

func TestDefaultWSEndpoint(t *testing.T) {
	cases := []struct {
		rpc  string
		want string
	}{
		{"https://api.devnet.solana.com", "wss://api.devnet.solana.com"},
		{"https://api.devnet.solana.com/", "wss://api.devnet.solana.com"},
		{"http://localhost:8899", "ws://localhost:8899"},
		{"wss://already.ws.example", "wss://already.ws.example"},
		{"ftp://nope.example", ""},
	}
	for _, tc := range cases {
		if got := DefaultWSEndpoint(tc.rpc); got != tc.want {
			t.Errorf("DefaultWSEndpoint(%q) = %q, want %q", tc.rpc, got, tc.want)
		}
	}
}

func TestParseAccountNotification(t *testing.T) {
	confirm := []byte(`{"jsonrpc":"2.0","id":1,"result":23784}`)
	notify := []byte(`{"jsonrpc":"2.0","method":"accountNotification","params":{"subscription":23784,"result":{"context":{"slot":5199307},"value":{"lamports":33594}}}}`)
	failure := []byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`)

	if ok, err := ParseAccountNotification(confirm); err != nil || ok {
		t.Errorf("confirmation: got (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := ParseAccountNotification(notify); err != nil || !ok {
		t.Errorf("notification: got (%v, %v), want (true, nil)", ok, err)
	}
	if _, err := ParseAccountNotification(failure); err == nil {
		t.Error("error frame: expected an error")
	}
	if _, err := ParseAccountNotification([]byte("not json")); err == nil {
		t.Error("garbage: expected an error")
	}
}
