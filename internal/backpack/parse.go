package backpack

import (
	"math"
	"strconv"
	"strings"

	"github.com/rewired-gh/kitarb/internal/models"
)

// ParsePrice converts a listing price label such as "40.11 ref", "2.33 keys"
// or "1 key, 6.11 ref" into a PriceObservation.
func ParsePrice(text string) (models.PriceObservation, error) {
	clean := strings.ToLower(strings.TrimSpace(text))
	clean = strings.NewReplacer("~", "", ",", " ").Replace(clean)
	parts := strings.Fields(clean)
	if len(parts) == 0 {
		return models.PriceObservation{}, &models.MalformedPriceError{Text: text, Reason: "empty price"}
	}
	if len(parts)%2 != 0 {
		return models.PriceObservation{}, &models.MalformedPriceError{Text: text, Reason: "expected <amount> <unit> pairs"}
	}

	var keys, ref float64
	var haveKeys, haveRef bool
	for i := 0; i < len(parts); i += 2 {
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.PriceObservation{}, &models.MalformedPriceError{Text: text, Reason: "invalid amount " + parts[i]}
		}
		if v < 0 {
			return models.PriceObservation{}, &models.MalformedPriceError{Text: text, Value: v, Reason: "negative amount"}
		}
		unit, err := models.ParseUnit(parts[i+1])
		if err != nil || unit == models.UnitMixed {
			return models.PriceObservation{}, &models.MalformedPriceError{Text: text, Reason: "unrecognized unit " + parts[i+1]}
		}
		switch {
		case unit == models.UnitKeys && !haveKeys:
			keys, haveKeys = v, true
		case unit == models.UnitRef && !haveRef:
			ref, haveRef = v, true
		default:
			return models.PriceObservation{}, &models.MalformedPriceError{Text: text, Reason: "duplicate unit " + parts[i+1]}
		}
	}

	switch {
	case haveKeys && haveRef:
		return models.Mixed(keys, ref), nil
	case haveKeys:
		return models.Keys(keys), nil
	default:
		return models.Ref(ref), nil
	}
}

// Item qualities as used by the backpack.tf search API.
const (
	QualityUnique  = 6
	QualityStrange = 11
)

// ItemAttributes are the search facets encoded in an item's display name.
type ItemAttributes struct {
	Quality        int
	KillstreakTier int // 0 none, 1 basic, 2 specialized, 3 professional
	Australium     bool
	BaseName       string
}

var tierPrefixes = []struct {
	prefix string
	tier   int
}{
	{"professional killstreak ", 3},
	{"specialized killstreak ", 2},
	{"killstreak ", 1},
}

// ParseItemName splits a display name like
// "Strange Professional Killstreak Australium Rocket Launcher" into its facets.
func ParseItemName(name string) ItemAttributes {
	attrs := ItemAttributes{Quality: QualityUnique}
	rest := strings.TrimSpace(name)

	if hasPrefixFold(rest, "strange ") {
		attrs.Quality = QualityStrange
		rest = strings.TrimSpace(rest[len("strange "):])
	}
	for _, tp := range tierPrefixes {
		if hasPrefixFold(rest, tp.prefix) {
			attrs.KillstreakTier = tp.tier
			rest = strings.TrimSpace(rest[len(tp.prefix):])
			break
		}
	}
	if hasPrefixFold(rest, "australium ") {
		attrs.Australium = true
		rest = strings.TrimSpace(rest[len("australium "):])
	}
	attrs.BaseName = rest
	return attrs
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
