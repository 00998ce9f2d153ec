// Package catalog holds the killstreak kit cost table.
//
// A Catalog is immutable once built. The professional kit is priced in keys,
// so its midpoint depends on the key price and a new Catalog must be built
// whenever that price changes. Registry publishes the current Catalog to
// concurrent readers.
package catalog

import (
	"sort"
	"sync"

	"github.com/rewired-gh/kitarb/internal/models"
	"github.com/rewired-gh/kitarb/internal/pricing"
)

// Default kit cost bounds.
const (
	SpecializedLowRef  = 47.0
	SpecializedHighRef = 50.0

	// Professional kits cost one key plus a ref component.
	ProfessionalKeys       = 1.0
	ProfessionalLowAddRef  = 70.0
	ProfessionalHighAddRef = 74.0
)

// Catalog is an immutable kit table bound to one key price.
type Catalog struct {
	keyPriceRef float64
	kits        map[models.KitType]models.KitDefinition
}

// New builds the default catalog for the given key price.
func New(keyPriceRef float64) (*Catalog, error) {
	if err := pricing.CheckKeyPrice(keyPriceRef); err != nil {
		return nil, err
	}

	specialized := models.CostRange{Low: SpecializedLowRef, High: SpecializedHighRef}
	pro := models.CostRange{
		Low:  ProfessionalKeys*keyPriceRef + ProfessionalLowAddRef,
		High: ProfessionalKeys*keyPriceRef + ProfessionalHighAddRef,
	}

	return &Catalog{
		keyPriceRef: keyPriceRef,
		kits: map[models.KitType]models.KitDefinition{
			models.KitSpecialized: {
				KitType:         models.KitSpecialized,
				DisplayName:     "Specialized Killstreak Kit",
				CostRangeRef:    specialized,
				CostMidpointRef: specialized.Midpoint(),
				Tier:            2,
			},
			models.KitProfessional: {
				KitType:         models.KitProfessional,
				DisplayName:     "Professional Killstreak Kit",
				CostRangeRef:    pro,
				CostMidpointRef: pro.Midpoint(),
				Tier:            3,
			},
		},
	}, nil
}

// Reload returns a new catalog priced at keyPriceRef. The receiver is not modified.
func (c *Catalog) Reload(keyPriceRef float64) (*Catalog, error) {
	return New(keyPriceRef)
}

// KeyPriceRef returns the key price the catalog was built with.
func (c *Catalog) KeyPriceRef() float64 {
	return c.keyPriceRef
}

// Lookup returns the definition of kitType.
func (c *Catalog) Lookup(kitType models.KitType) (models.KitDefinition, error) {
	def, ok := c.kits[kitType]
	if !ok {
		return models.KitDefinition{}, &models.UnknownKitTypeError{KitType: kitType}
	}
	return def, nil
}

// AllKitTypes returns every kit type ordered by tier.
func (c *Catalog) AllKitTypes() []models.KitType {
	types := make([]models.KitType, 0, len(c.kits))
	for t := range c.kits {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return c.kits[types[i]].Tier < c.kits[types[j]].Tier
	})
	return types
}

// Registry publishes the current catalog. Reload takes the write lock, so it
// waits for readers holding a snapshot via Acquire to release it.
type Registry struct {
	mu      sync.RWMutex
	current *Catalog
}

// NewRegistry creates a registry holding a catalog for keyPriceRef.
func NewRegistry(keyPriceRef float64) (*Registry, error) {
	c, err := New(keyPriceRef)
	if err != nil {
		return nil, err
	}
	return &Registry{current: c}, nil
}

// Current returns the current immutable catalog.
func (r *Registry) Current() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Acquire pins the current catalog for a batch. Reload blocks until release is called.
func (r *Registry) Acquire() (*Catalog, func()) {
	r.mu.RLock()
	var once sync.Once
	return r.current, func() { once.Do(r.mu.RUnlock) }
}

// Reload swaps in a catalog for keyPriceRef. On error the current catalog is kept.
func (r *Registry) Reload(keyPriceRef float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := r.current.Reload(keyPriceRef)
	if err != nil {
		return err
	}
	r.current = next
	return nil
}
