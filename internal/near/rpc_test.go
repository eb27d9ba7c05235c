package near_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearauction/internal/near"
)

// nodeServer answers JSON-RPC requests with canned results per method.
func nodeServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		res, ok := results[req.Method]
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"Method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + res + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDialAndStatusOverHTTP(t *testing.T) {
	srv := nodeServer(t, map[string]string{
		"status": `{"chain_id":"testnet","sync_info":{"latest_block_hash":"abc","latest_block_height":99}}`,
		"query":  `{"result":` + bytesJSON(`["sword"]`) + `,"logs":[],"block_height":99,"block_hash":"abc"}`,
	})

	c, err := near.Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer c.Close()

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "testnet", st.ChainID)
	assert.Equal(t, uint64(99), st.SyncInfo.LatestBlockHeight)

	out, err := c.CallFunction(context.Background(), "auction.testnet", "get_items", map[string]string{"account_id": "bob.testnet"})
	require.NoError(t, err)
	assert.Equal(t, `["sword"]`, string(out))
}

func TestRPCErrorSurfaces(t *testing.T) {
	srv := nodeServer(t, map[string]string{})
	c, err := near.Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Method not found")
}
