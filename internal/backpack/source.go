package backpack

import (
	"context"
	"fmt"

	"github.com/rewired-gh/kitarb/internal/models"
)

// Quoter is implemented by anything that can price an item for the batch runner.
type Quoter interface {
	AcquisitionQuote(ctx context.Context, itemName string, keyPriceRef float64) (models.PriceObservation, error)
	LiquidationQuote(ctx context.Context, itemName string, keyPriceRef float64) (models.PriceObservation, error)
}

// StaticQuotes serves fixed prices, typically manual overrides from configuration.
// The same price is used for buying and selling.
type StaticQuotes struct {
	prices map[string]models.PriceObservation
	next   Quoter
}

// NewStaticQuotes parses labels such as "1 key, 6.11 ref" keyed by item name.
// Items without an override are delegated to next; a nil next reports them as
// having no market data.
func NewStaticQuotes(labels map[string]string, next Quoter) (*StaticQuotes, error) {
	prices := make(map[string]models.PriceObservation, len(labels))
	for item, label := range labels {
		obs, err := ParsePrice(label)
		if err != nil {
			return nil, fmt.Errorf("price override for %s: %w", item, err)
		}
		prices[item] = obs
	}
	return &StaticQuotes{prices: prices, next: next}, nil
}

// Len returns the number of overrides.
func (s *StaticQuotes) Len() int {
	return len(s.prices)
}

func (s *StaticQuotes) AcquisitionQuote(ctx context.Context, itemName string, keyPriceRef float64) (models.PriceObservation, error) {
	if obs, ok := s.prices[itemName]; ok {
		return obs, nil
	}
	if s.next == nil {
		return models.PriceObservation{}, &models.InsufficientMarketDataError{Item: itemName, Reason: "no price override"}
	}
	return s.next.AcquisitionQuote(ctx, itemName, keyPriceRef)
}

func (s *StaticQuotes) LiquidationQuote(ctx context.Context, itemName string, keyPriceRef float64) (models.PriceObservation, error) {
	if obs, ok := s.prices[itemName]; ok {
		return obs, nil
	}
	if s.next == nil {
		return models.PriceObservation{}, &models.InsufficientMarketDataError{Item: itemName, Reason: "no price override"}
	}
	return s.next.LiquidationQuote(ctx, itemName, keyPriceRef)
}
