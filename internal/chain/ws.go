package chain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
)

type WSClient struct {
	Endpoint string
	Conn     *websocket.Conn
}

func NewWSClient(endpoint string) *WSClient {
	return &WSClient{Endpoint: endpoint}
}

func (c *WSClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.Endpoint, nil)
	if err != nil {
		return err
	}
	c.Conn = conn
	return nil
}

func (c *WSClient) Close() {
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// SubscribeAccount subscribes to finalized changes of one account, which for
// the merchant wallet means "somebody just paid us".
func (c *WSClient) SubscribeAccount(ctx context.Context, address string) error {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "accountSubscribe",
		"params": []any{
			address,
			map[string]any{"encoding": "base64", "commitment": "finalized"},
		},
	}
	return c.Conn.WriteJSON(payload)
}

func (c *WSClient) Read(ctx context.Context) ([]byte, error) {
	_, msg, err := c.Conn.ReadMessage()
	return msg, err
}

// ParseAccountNotification reports whether msg is an account notification.
// Subscription confirmations and keepalives return (false, nil).
func ParseAccountNotification(msg []byte) (bool, error) {
	var env struct {
		Method string `json:"method"`
		Params struct {
			Result json.RawMessage `json:"result"`
		} `json:"params"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		return false, err
	}
	if env.Error != nil {
		return false, errors.New(env.Error.Message)
	}
	if env.Method != "accountNotification" {
		return false, nil
	}
	return len(env.Params.Result) > 0, nil
}
