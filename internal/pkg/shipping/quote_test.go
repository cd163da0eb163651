package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headshop-br/headshop/app/models"
)

type stubProfiles struct {
	byID       *models.ShippingProfile
	byProducts *models.ShippingProfile
	byPlan     *models.ShippingProfile
	def        *models.ShippingProfile
}

var errNoProfile = errors.New("no profile")

func (s *stubProfiles) GetProfileByID(id uint) (*models.ShippingProfile, error) {
	if s.byID == nil {
		return nil, errNoProfile
	}
	return s.byID, nil
}

func (s *stubProfiles) GetProfileForProducts(productIDs []uint) (*models.ShippingProfile, error) {
	if s.byProducts == nil {
		return nil, errNoProfile
	}
	return s.byProducts, nil
}

func (s *stubProfiles) GetProfileForPlan(planID uint) (*models.ShippingProfile, error) {
	if s.byPlan == nil {
		return nil, errNoProfile
	}
	return s.byPlan, nil
}

func (s *stubProfiles) GetDefaultProfile() (*models.ShippingProfile, error) {
	if s.def == nil {
		return nil, errNoProfile
	}
	return s.def, nil
}

func newFallbackService(profiles ProfileResolver) *Service {
	// nil rate client: fallback table only
	return NewService(nil, profiles)
}

func TestQuote_SaoPauloBaseline(t *testing.T) {
	svc := newFallbackService(&stubProfiles{def: &models.ShippingProfile{WeightGrams: 500}})

	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "01310-100"})
	require.NoError(t, err)
	require.Len(t, options, 2)

	assert.Equal(t, "PAC", options[0].Name)
	assert.Equal(t, 15.90, options[0].Price)
	assert.Equal(t, 5, options[0].EstimatedDays)
	assert.Equal(t, SourceFallback, options[0].Source)

	assert.Equal(t, "SEDEX", options[1].Name)
	assert.Equal(t, 28.62, options[1].Price)
	assert.Equal(t, 2, options[1].EstimatedDays)
}

func TestQuote_WeightScalesPrice(t *testing.T) {
	svc := newFallbackService(&stubProfiles{def: &models.ShippingProfile{WeightGrams: 1000}})

	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "01310100"})
	require.NoError(t, err)
	// 15.90 * (1.0 / 0.5) = 31.80
	assert.Equal(t, 31.80, options[0].Price)
}

func TestQuote_FloorPrice(t *testing.T) {
	svc := newFallbackService(&stubProfiles{def: &models.ShippingProfile{WeightGrams: 100}})

	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "01310100"})
	require.NoError(t, err)
	// 15.90 * 0.2 = 3.18, raised to the 9.90 floor
	assert.Equal(t, 9.90, options[0].Price)
	assert.Equal(t, round2(9.90*1.8), options[1].Price)
}

func TestQuote_InvalidCEP(t *testing.T) {
	svc := newFallbackService(&stubProfiles{def: &models.ShippingProfile{WeightGrams: 500}})

	for _, cep := range []string{"", "1234567", "123456789", "abcdefgh"} {
		_, err := svc.Quote(context.Background(), QuoteInput{CEP: cep})
		assert.ErrorIs(t, err, ErrInvalidCEP, "cep %q", cep)
	}
}

func TestQuote_UnknownBandUsesDefaultRegion(t *testing.T) {
	svc := newFallbackService(&stubProfiles{def: &models.ShippingProfile{WeightGrams: 500}})

	// 00xxx is below every defined band
	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "00100000"})
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, 24.90, options[0].Price)
	assert.Equal(t, 10, options[0].EstimatedDays)
}

func TestQuote_ProfileCascade(t *testing.T) {
	profiles := &stubProfiles{
		byID:       &models.ShippingProfile{WeightGrams: 2000},
		byProducts: &models.ShippingProfile{WeightGrams: 1000},
		byPlan:     &models.ShippingProfile{WeightGrams: 500},
		def:        &models.ShippingProfile{WeightGrams: 300},
	}
	svc := newFallbackService(profiles)

	// explicit profile id wins
	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "01310100", ShippingProfileID: 9, ProductIDs: []uint{1}, PlanID: 2})
	require.NoError(t, err)
	assert.Equal(t, round2(15.90*4), options[0].Price)

	// then product set
	profiles.byID = nil
	options, err = svc.Quote(context.Background(), QuoteInput{CEP: "01310100", ShippingProfileID: 9, ProductIDs: []uint{1}, PlanID: 2})
	require.NoError(t, err)
	assert.Equal(t, round2(15.90*2), options[0].Price)

	// then plan
	profiles.byProducts = nil
	options, err = svc.Quote(context.Background(), QuoteInput{CEP: "01310100", ShippingProfileID: 9, ProductIDs: []uint{1}, PlanID: 2})
	require.NoError(t, err)
	assert.Equal(t, 15.90, options[0].Price)
}

func TestQuote_NoResolverFallsBackTo300g(t *testing.T) {
	svc := NewService(nil, nil)

	options, err := svc.Quote(context.Background(), QuoteInput{CEP: "01310100"})
	require.NoError(t, err)
	// 15.90 * (0.3 / 0.5) = 9.54, raised to the floor
	assert.Equal(t, 9.90, options[0].Price)
}

func TestRegionForCEP(t *testing.T) {
	tests := []struct {
		cep  string
		want string
	}{
		{cep: "01310100", want: "SP"},
		{cep: "20040002", want: "RJ"},
		{cep: "29010000", want: "ES"},
		{cep: "30130000", want: "MG"},
		{cep: "40010000", want: "BA"},
		{cep: "50010000", want: "PE"},
		{cep: "60010000", want: "CE"},
		{cep: "66010000", want: "PA"},
		{cep: "70040010", want: "DF"},
		{cep: "78005000", want: "MT"},
		{cep: "80010000", want: "PR"},
		{cep: "90010000", want: "RS"},
		{cep: "00999999", want: "BR"},
	}

	for _, tt := range tests {
		if got := regionForCEP(tt.cep); got.UF != tt.want {
			t.Fatalf("regionForCEP(%q).UF = %q, want %q", tt.cep, got.UF, tt.want)
		}
	}
}

func TestNormalizeCEP(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "01310-100", want: "01310100"},
		{in: " 01310100 ", want: "01310100"},
		{in: "01.310-100", want: "01310100"},
		{in: "0131010", wantErr: true},
		{in: "013101000", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := NormalizeCEP(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCEP) {
				t.Fatalf("NormalizeCEP(%q): expected ErrInvalidCEP, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("NormalizeCEP(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
