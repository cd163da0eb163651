package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/headshop-br/headshop/internal/pkg/env"
)

const defaultRateAPIBaseURL = "https://melhorenvio.com.br"

// RateClient calls the external shipping-rate API. It is optional: quoting
// falls back to the regional table when the client is nil, disabled, or the
// call fails.
type RateClient struct {
	Token      string
	APIBaseURL string
	OriginCEP  string

	HTTPClient *http.Client
}

// NewRateClientFromEnv returns nil when the external rate API is disabled,
// which routes every quote through the fallback table.
func NewRateClientFromEnv() *RateClient {
	if env.GetEnv("SHIPPING_RATE_API_ENABLED", "false") != "true" {
		return nil
	}
	return &RateClient{
		Token:      strings.TrimSpace(env.GetEnv("SHIPPING_RATE_API_TOKEN", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("SHIPPING_RATE_API_BASE_URL", defaultRateAPIBaseURL), "/"),
		OriginCEP:  strings.TrimSpace(env.GetEnv("SHIPPING_ORIGIN_CEP", "01310100")),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type rateRequest struct {
	From    rateEndpoint `json:"from"`
	To      rateEndpoint `json:"to"`
	Package ratePackage  `json:"package"`
}

type rateEndpoint struct {
	PostalCode string `json:"postal_code"`
}

type ratePackage struct {
	Weight float64 `json:"weight"` // kg
	Length int     `json:"length"` // cm
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

type rateEntry struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Price        json.Number     `json:"price"`
	DeliveryTime int             `json:"delivery_time"`
	Company      struct {
		Name string `json:"name"`
	} `json:"company"`
	Error string `json:"error"`
}

// Calculate quotes a parcel against the external API. Entries carrying an
// error or a non-positive price are dropped.
func (c *RateClient) Calculate(ctx context.Context, destinationCEP string, weightKG float64, lengthCM, widthCM, heightCM int) ([]Option, error) {
	payload := rateRequest{
		From:    rateEndpoint{PostalCode: c.OriginCEP},
		To:      rateEndpoint{PostalCode: destinationCEP},
		Package: ratePackage{Weight: weightKG, Length: lengthCM, Width: widthCM, Height: heightCM},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/api/v2/me/shipment/calculate", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rate API failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var entries []rateEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("rate API returned malformed payload: %w", err)
	}

	options := make([]Option, 0, len(entries))
	for _, entry := range entries {
		if entry.Error != "" {
			continue
		}
		price, err := entry.Price.Float64()
		if err != nil || price <= 0 {
			continue
		}
		name := entry.Name
		if entry.Company.Name != "" {
			name = entry.Company.Name + " " + entry.Name
		}
		options = append(options, Option{
			ID:            "rate-" + strconv.Itoa(entry.ID),
			Name:          name,
			Price:         round2(price),
			EstimatedDays: entry.DeliveryTime,
			Source:        SourceRateAPI,
		})
	}
	return options, nil
}
