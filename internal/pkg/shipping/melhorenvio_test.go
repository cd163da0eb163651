package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headshop-br/headshop/app/models"
)

func TestRateClientCalculate_FiltersErrorAndZeroPriceEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/me/shipment/calculate", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var req rateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "01310100", req.From.PostalCode)
		assert.Equal(t, "20040002", req.To.PostalCode)
		assert.Equal(t, 0.5, req.Package.Weight)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "PAC", "price": "21.47", "delivery_time": 7, "company": {"name": "Correios"}},
			{"id": 2, "name": "SEDEX", "price": "35.10", "delivery_time": 3, "company": {"name": "Correios"}},
			{"id": 3, "name": ".Package", "price": "0.00", "delivery_time": 4, "company": {"name": "Jadlog"}},
			{"id": 4, "name": "Express", "error": "Dimensões excedem o limite", "company": {"name": "Azul"}}
		]`))
	}))
	defer server.Close()

	client := &RateClient{
		Token:      "token-1",
		APIBaseURL: server.URL,
		OriginCEP:  "01310100",
		HTTPClient: server.Client(),
	}

	options, err := client.Calculate(context.Background(), "20040002", 0.5, 16, 11, 6)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Correios PAC", options[0].Name)
	assert.Equal(t, 21.47, options[0].Price)
	assert.Equal(t, SourceRateAPI, options[0].Source)
	assert.Equal(t, "Correios SEDEX", options[1].Name)
}

func TestRateClientCalculate_HTTPErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := &RateClient{APIBaseURL: server.URL, HTTPClient: server.Client()}
	_, err := client.Calculate(context.Background(), "20040002", 0.5, 16, 11, 6)
	assert.Error(t, err)
}

func TestQuote_RateAPIResultsSortedAscending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 2, "name": "SEDEX", "price": "35.10", "delivery_time": 3},
			{"id": 1, "name": "PAC", "price": "21.47", "delivery_time": 7}
		]`))
	}))
	defer server.Close()

	rates := &RateClient{Token: "t", APIBaseURL: server.URL, OriginCEP: "01310100", HTTPClient: server.Client()}
	svc := NewService(rates, &stubProfiles{def: &models.ShippingProfile{WeightGrams: 500}})

	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "20040-002"})
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, 21.47, options[0].Price)
	assert.Equal(t, 35.10, options[1].Price)
}

func TestQuote_RateAPIFailureFallsBackSilently(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rates := &RateClient{Token: "t", APIBaseURL: server.URL, OriginCEP: "01310100", HTTPClient: server.Client()}
	svc := NewService(rates, &stubProfiles{def: &models.ShippingProfile{WeightGrams: 500}})

	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "01310100"})
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, SourceFallback, options[0].Source)
	assert.Equal(t, 15.90, options[0].Price)
}
