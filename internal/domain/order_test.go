package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRequiredFields(t *testing.T) {
	order := &Order{TariffText: "1 day — 20₴", FullName: "John Doe", BirthDate: "01.02.1990"}
	assert.True(t, order.HasRequiredFields())

	assert.False(t, (&Order{FullName: "John Doe", BirthDate: "01.02.1990"}).HasRequiredFields())
	assert.False(t, (*Order)(nil).HasRequiredFields())
}

func TestAcceptsPaymentProof(t *testing.T) {
	assert.True(t, (&Order{Status: StatusWaitingPayment}).AcceptsPaymentProof())
	assert.True(t, (&Order{Status: StatusWaitingConfirm}).AcceptsPaymentProof())
	assert.False(t, (&Order{Status: StatusWaitingReq}).AcceptsPaymentProof())
	assert.False(t, (&Order{Status: StatusCompleted}).AcceptsPaymentProof())
}

func TestClientKey(t *testing.T) {
	assert.Equal(t, "42", ClientKey(42))
	assert.Equal(t, "-1001", ClientKey(-1001))
}

func TestOrderJSONOmitsInternalID(t *testing.T) {
	data, err := json.Marshal(Order{ID: 9, ClientID: "42", Username: "none", Status: StatusWaitingReq})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "id")
	assert.NotContains(t, raw, "ID")
	assert.Equal(t, "42", raw["client_id"])
}

func TestCatalogGet(t *testing.T) {
	catalog := DefaultCatalog()
	require.NotEmpty(t, catalog)

	tariff, ok := catalog.Get("30_days")
	assert.True(t, ok)
	assert.Equal(t, "30_days", tariff.Key)

	_, ok = catalog.Get("bogus")
	assert.False(t, ok)
}
