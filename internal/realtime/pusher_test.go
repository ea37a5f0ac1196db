package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDepositObject(t *testing.T) {
	raw := json.RawMessage(`{"amount":"1250000000","currency":"USDC","network":"polygon","walletAddress":"0xabc","transactionId":"0xdef"}`)

	ev, err := decodeDeposit(raw)
	require.NoError(t, err)
	assert.Equal(t, "1250000000", ev.Amount)
	assert.Equal(t, "USDC", ev.Currency)
	assert.Equal(t, "polygon", ev.Network)
}

func TestDecodeDepositDoubleEncoded(t *testing.T) {
	inner := `{"amount":"100000000","currency":"USDC"}`
	raw, err := json.Marshal(inner)
	require.NoError(t, err)

	ev, err := decodeDeposit(raw)
	require.NoError(t, err)
	assert.Equal(t, "100000000", ev.Amount)
}

func TestDecodeDepositGarbage(t *testing.T) {
	_, err := decodeDeposit(json.RawMessage(`deposit!`))
	assert.Error(t, err)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", Tail("abc", 6))
	assert.Equal(t, "…345678", Tail("0x12345678", 6))
	assert.Equal(t, "", Tail("  ", 4))
}

func TestManagerActiveLifecycle(t *testing.T) {
	m := NewManager("key", "ap2", func(int64, DepositEvent) {})
	assert.False(t, m.Active(42))

	// Closing a chat without a subscription is a no-op.
	m.Close(42)
	assert.False(t, m.Active(42))
}
