// Package pricing converts marketplace quotes into a single ref value.
package pricing

import (
	"math"

	"github.com/rewired-gh/kitarb/internal/models"
)

// Normalize converts obs into ref using keyPriceRef as the ref price of one key.
// keyPriceRef is only consulted for key-denominated units. No rounding is applied.
func Normalize(obs models.PriceObservation, keyPriceRef float64) (models.NormalizedPrice, error) {
	if err := obs.Validate(); err != nil {
		return models.NormalizedPrice{}, err
	}

	var ref float64
	switch obs.Unit {
	case models.UnitRef:
		ref = obs.Value
	case models.UnitKeys, models.UnitMixed:
		if err := CheckKeyPrice(keyPriceRef); err != nil {
			return models.NormalizedPrice{}, err
		}
		ref = obs.Value * keyPriceRef
		if obs.Unit == models.UnitMixed {
			ref += *obs.SecondaryValue
		}
	}

	return models.NormalizedPrice{RefValue: ref, SourceUnit: obs.Unit}, nil
}

// CheckKeyPrice reports a ConfigurationError unless keyPriceRef is finite and positive.
func CheckKeyPrice(keyPriceRef float64) error {
	if math.IsNaN(keyPriceRef) || math.IsInf(keyPriceRef, 0) || keyPriceRef <= 0 {
		return &models.ConfigurationError{Field: "key_price_ref", Reason: "key price must be a positive number"}
	}
	return nil
}

// Round2 rounds to two decimal places. Use only when presenting values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
