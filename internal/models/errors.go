package models

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration          = errors.New("configuration error")
	ErrMalformedPrice         = errors.New("malformed price")
	ErrUnknownKitType         = errors.New("unknown kit type")
	ErrInsufficientMarketData = errors.New("insufficient market data")
)

// ConfigurationError reports a missing or invalid setting such as the key price.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// MalformedPriceError reports a negative or unparseable price.
type MalformedPriceError struct {
	Text   string // raw listing text, when the price came from a string
	Value  float64
	Unit   Unit
	Reason string
}

func (e *MalformedPriceError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("malformed price %q: %s", e.Text, e.Reason)
	}
	return fmt.Sprintf("malformed price %g %s: %s", e.Value, e.Unit, e.Reason)
}

func (e *MalformedPriceError) Is(target error) bool { return target == ErrMalformedPrice }

// UnknownKitTypeError reports a kit type absent from the catalog.
type UnknownKitTypeError struct {
	KitType KitType
}

func (e *UnknownKitTypeError) Error() string {
	return fmt.Sprintf("unknown kit type: %q", string(e.KitType))
}

func (e *UnknownKitTypeError) Is(target error) bool { return target == ErrUnknownKitType }

// InsufficientMarketDataError reports that the price source has no usable listing.
type InsufficientMarketDataError struct {
	Item   string
	Reason string
}

func (e *InsufficientMarketDataError) Error() string {
	return fmt.Sprintf("insufficient market data for %s: %s", e.Item, e.Reason)
}

func (e *InsufficientMarketDataError) Is(target error) bool {
	return target == ErrInsufficientMarketData
}
