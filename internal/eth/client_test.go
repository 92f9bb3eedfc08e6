package eth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/keyfob/internal/eth"
)

// jsonRPCServer answers every request with the scripted result, or a JSON-RPC
// error when respond returns ok=false.
func jsonRPCServer(respond func(method string) (string, bool)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := respond(req.Method); ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32000,"message":"execution error"}}`, req.ID)
	}))
}

func TestClientClassifiesTimeout(t *testing.T) {
	// The server stalls until the client gives up.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := eth.NewClient(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = client.GasPrice(ctx)
	assert.ErrorIs(t, err, eth.ErrTimeout)
	assert.NotErrorIs(t, err, eth.ErrNetwork)
}

func TestClientClassifiesNetworkError(t *testing.T) {
	srv := jsonRPCServer(func(method string) (string, bool) {
		return "", false // every call fails with an RPC error
	})
	defer srv.Close()

	client, err := eth.NewClient(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GasPrice(context.Background())
	assert.ErrorIs(t, err, eth.ErrNetwork)
	assert.NotErrorIs(t, err, eth.ErrTimeout)
	assert.ErrorContains(t, err, "eth_gasPrice")
}

func TestClientCalls(t *testing.T) {
	txHash := "0x" + strings.Repeat("ab", 32)
	srv := jsonRPCServer(func(method string) (string, bool) {
		switch method {
		case "eth_chainId":
			return `"0x2105"`, true // 8453
		case "eth_gasPrice":
			return `"0x3b9aca00"`, true // 1 gwei
		case "eth_sendRawTransaction":
			return fmt.Sprintf("%q", txHash), true
		case "eth_getTransactionReceipt":
			return "null", true // not yet mined
		}
		return "", false
	})
	defer srv.Close()

	client, err := eth.NewClient(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	t.Run("ChainID", func(t *testing.T) {
		chainID, err := client.ChainID(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(8453), chainID.Uint64())
	})

	t.Run("GasPrice", func(t *testing.T) {
		price, err := client.GasPrice(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000_000), price.Uint64())
	})

	t.Run("SendRawTransaction", func(t *testing.T) {
		hash, err := client.SendRawTransaction(ctx, []byte{0x04, 0x01})
		require.NoError(t, err)
		assert.Equal(t, common.HexToHash(txHash), hash)
	})

	t.Run("Receipt not yet mined", func(t *testing.T) {
		receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
		require.NoError(t, err)
		assert.Nil(t, receipt)
	})
}
