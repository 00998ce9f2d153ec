// Package evaluator computes the profit of applying a killstreak kit to an item.
package evaluator

import (
	"fmt"
	"strings"

	"github.com/rewired-gh/kitarb/internal/catalog"
	"github.com/rewired-gh/kitarb/internal/models"
	"github.com/rewired-gh/kitarb/internal/pricing"
)

var tierPrefix = map[int]string{
	2: "Strange Specialized Killstreak ",
	3: "Strange Professional Killstreak ",
}

// UpgradedName returns the marketplace name of baseItemName after applying kitType.
// A leading "Strange " on the base name is folded into the prefix.
func UpgradedName(cat *catalog.Catalog, kitType models.KitType, baseItemName string) (string, error) {
	def, err := cat.Lookup(kitType)
	if err != nil {
		return "", err
	}
	return nameForTier(def.Tier, baseItemName)
}

func nameForTier(tier int, baseItemName string) (string, error) {
	prefix, ok := tierPrefix[tier]
	if !ok {
		return "", fmt.Errorf("no upgraded name for kit tier %d", tier)
	}
	base := strings.TrimSpace(baseItemName)
	if len(base) > len("Strange ") && strings.EqualFold(base[:len("Strange ")], "Strange ") {
		base = strings.TrimSpace(base[len("Strange "):])
	}
	return prefix + base, nil
}

// Evaluate produces the upgrade record for one (item, kit) pair. It is pure:
// identical inputs yield identical records. keyPriceRef must be the rate cat
// was built with, so quotes and kit costs share one exchange rate.
func Evaluate(
	cat *catalog.Catalog,
	baseItemName string,
	kitType models.KitType,
	basePrice models.PriceObservation,
	upgradedPrice models.PriceObservation,
	keyPriceRef float64,
) (models.UpgradeRecord, error) {
	base, err := pricing.Normalize(basePrice, keyPriceRef)
	if err != nil {
		return models.UpgradeRecord{}, err
	}
	upgraded, err := pricing.Normalize(upgradedPrice, keyPriceRef)
	if err != nil {
		return models.UpgradeRecord{}, err
	}

	if keyPriceRef != cat.KeyPriceRef() {
		return models.UpgradeRecord{}, &models.ConfigurationError{
			Field:  "key_price_ref",
			Reason: fmt.Sprintf("%g ref does not match the catalog rate of %g ref", keyPriceRef, cat.KeyPriceRef()),
		}
	}

	def, err := cat.Lookup(kitType)
	if err != nil {
		return models.UpgradeRecord{}, err
	}
	name, err := nameForTier(def.Tier, baseItemName)
	if err != nil {
		return models.UpgradeRecord{}, err
	}

	kitCost := def.CostMidpointRef
	totalCost := base.RefValue + kitCost
	profit := upgraded.RefValue - totalCost

	rec := models.UpgradeRecord{
		BaseItem:      baseItemName,
		KitType:       kitType,
		BaseItemRef:   name,
		BasePrice:     base,
		KitCost:       kitCost,
		UpgradedPrice: upgraded,
		TotalCost:     totalCost,
		ProfitRef:     profit,
		IsProfitable:  profit > 0,
		Status:        models.StatusOK,
	}

	if upgraded.RefValue > 0 {
		rec.BreakEvenPercent = totalCost / upgraded.RefValue * 100
	} else {
		rec.Status = models.StatusZeroRevenue
	}

	if totalCost > 0 {
		rec.ProfitPercent = profit / totalCost * 100
	} else {
		rec.Status = models.StatusZeroCost
		rec.IsProfitable = false
	}

	return rec, nil
}
