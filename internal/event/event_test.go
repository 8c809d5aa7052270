package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FillsEnvelope(t *testing.T) {
	env, err := New("t1", "user-1", KindSale, "SaleCreated", map[string]int{"n": 1})

	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "t1", env.TenantID)
	assert.Equal(t, "user-1", env.Origin)
	assert.Equal(t, KindSale, env.Kind)
	assert.Equal(t, "SaleCreated", env.Type)
	assert.False(t, env.Timestamp.IsZero())
}

func TestNew_UnmarshalablePayload(t *testing.T) {
	_, err := New("t1", "user-1", KindSale, "SaleCreated", make(chan int))
	assert.Error(t, err)
}

func TestEnvelope_DecodeRoundTrip(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	env, err := New("t1", "user-1", KindInventory, "StockDecreased", payload{Name: "Beans", Count: 3})
	require.NoError(t, err)

	var got payload
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, payload{Name: "Beans", Count: 3}, got)
}

func TestChannelFor(t *testing.T) {
	tests := []struct {
		kind    Kind
		channel string
	}{
		{KindSale, ChannelSales},
		{KindInventory, ChannelInventory},
		{KindPayment, ChannelPayments},
		{KindSync, ChannelSync},
		{Kind("unknown"), ChannelSync},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.channel, ChannelFor(tt.kind))
	}
}
