package shipping

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2/log"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/internal/pkg/env"
)

const (
	SourceRateAPI  = "rate_api"
	SourceFallback = "fallback"

	// baselineWeightKG is the reference weight the fallback table prices.
	baselineWeightKG = 0.5

	// sedexMultiplier derives the express tier from the base rate.
	sedexMultiplier = 1.8
)

// Option is one quoted shipping choice presented at checkout.
type Option struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	EstimatedDays int     `json:"estimatedDays"`
	Source        string  `json:"source"`
}

// ProfileResolver looks up shipping profiles; app/repository satisfies it.
type ProfileResolver interface {
	GetProfileByID(id uint) (*models.ShippingProfile, error)
	GetProfileForProducts(productIDs []uint) (*models.ShippingProfile, error)
	GetProfileForPlan(planID uint) (*models.ShippingProfile, error)
	GetDefaultProfile() (*models.ShippingProfile, error)
}

// Service quotes shipments: external rate API when available, regional
// fixed-rate table otherwise.
type Service struct {
	rates      *RateClient
	profiles   ProfileResolver
	floorPrice float64
}

// NewService wires a quote service. rates may be nil (API disabled).
func NewService(rates *RateClient, profiles ProfileResolver) *Service {
	floor := 9.90
	if raw := env.GetEnv("SHIPPING_FLOOR_PRICE", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			floor = v
		}
	}
	return &Service{rates: rates, profiles: profiles, floorPrice: floor}
}

// QuoteInput selects the shipment to price. Profile resolution order:
// explicit profile id, then product set, then plan, then the default profile.
type QuoteInput struct {
	CEP               string
	ShippingProfileID uint
	ProductIDs        []uint
	PlanID            uint
}

// Quote validates the CEP, resolves a weight/dimension profile and returns
// price-ascending options. Rate-API failures degrade silently to the
// fallback table; only an invalid CEP is a hard error.
func (s *Service) Quote(ctx context.Context, in QuoteInput) ([]Option, error) {
	cep, err := NormalizeCEP(in.CEP)
	if err != nil {
		return nil, err
	}

	profile := s.resolveProfile(in)

	if s.rates != nil {
		options, err := s.rates.Calculate(ctx, cep, profile.WeightKG(), profile.LengthCM, profile.WidthCM, profile.HeightCM)
		if err != nil {
			log.Warnf("[Shipping] rate API unavailable, using fallback table: %v", err)
		} else if len(options) > 0 {
			sort.Slice(options, func(i, j int) bool { return options[i].Price < options[j].Price })
			return options, nil
		}
	}

	return s.fallbackOptions(cep, profile.WeightKG()), nil
}

// fallbackOptions derives the two synthetic tiers from the regional base
// rate: PAC (base) and SEDEX (pricier, faster). Price scales with the weight
// ratio against the 500g baseline and never drops below the floor price.
func (s *Service) fallbackOptions(cep string, weightKG float64) []Option {
	region := regionForCEP(cep)

	base := region.BasePrice * (weightKG / baselineWeightKG)
	if base < s.floorPrice {
		base = s.floorPrice
	}

	pac := Option{
		ID:            "pac-" + region.UF,
		Name:          "PAC",
		Price:         round2(base),
		EstimatedDays: region.BaseDays,
		Source:        SourceFallback,
	}
	sedexDays := region.BaseDays / 2
	if sedexDays < 1 {
		sedexDays = 1
	}
	sedex := Option{
		ID:            "sedex-" + region.UF,
		Name:          "SEDEX",
		Price:         round2(base * sedexMultiplier),
		EstimatedDays: sedexDays,
		Source:        SourceFallback,
	}
	return []Option{pac, sedex}
}

// resolveProfile applies the first-match-wins cascade, ending in a
// hard-coded 300g default when no profile is configured anywhere.
func (s *Service) resolveProfile(in QuoteInput) *models.ShippingProfile {
	if s.profiles != nil {
		if in.ShippingProfileID != 0 {
			if p, err := s.profiles.GetProfileByID(in.ShippingProfileID); err == nil {
				return p
			}
		}
		if len(in.ProductIDs) > 0 {
			if p, err := s.profiles.GetProfileForProducts(in.ProductIDs); err == nil {
				return p
			}
		}
		if in.PlanID != 0 {
			if p, err := s.profiles.GetProfileForPlan(in.PlanID); err == nil {
				return p
			}
		}
		if p, err := s.profiles.GetDefaultProfile(); err == nil {
			return p
		}
	}
	return &models.ShippingProfile{
		Name:        "default",
		WeightGrams: 300,
		LengthCM:    16,
		WidthCM:     11,
		HeightCM:    6,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
