// Package backpack fetches marketplace quotes from the backpack.tf classifieds API.
package backpack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rewired-gh/kitarb/internal/logger"
	"github.com/rewired-gh/kitarb/internal/models"
	"github.com/rewired-gh/kitarb/internal/pricing"
)

// KeyItemName is the item whose ref price defines the key exchange rate.
const KeyItemName = "Mann Co. Supply Crate Key"

const tf2AppID = "440"

// PriceMode selects which sell listings make up an acquisition quote.
type PriceMode string

const (
	PriceModeFirst PriceMode = "first" // lowest sell listing
	PriceModeAvg23 PriceMode = "avg23" // mean of the 2nd and 3rd listings when there are at least three
)

// Client provides access to the backpack.tf classifieds API.
type Client struct {
	apiURL         string
	token          string
	httpClient     *http.Client
	limiter        *rate.Limiter
	cache          *cache.Cache
	group          singleflight.Group
	priceMode      PriceMode
	pageSize       int
	maxRetries     int
	retryDelayBase time.Duration
}

// ClientConfig holds tunables for the HTTP client.
type ClientConfig struct {
	Token          string
	Timeout        time.Duration
	Throttle       time.Duration // minimum spacing between requests, 0 = unlimited
	CacheTTL       time.Duration // 0 disables caching
	PriceMode      PriceMode
	PageSize       int
	MaxRetries     int
	RetryDelayBase time.Duration
}

// Currencies is the price of a listing as reported by the API.
type Currencies struct {
	Keys  float64 `json:"keys"`
	Metal float64 `json:"metal"`
}

// Listing is a single classifieds entry.
type Listing struct {
	ID         string     `json:"id"`
	SteamID    string     `json:"steamid"`
	Currencies Currencies `json:"currencies"`
	Details    string     `json:"details"`
}

// ListingSide groups listings of one intent.
type ListingSide struct {
	Total    int       `json:"total"`
	Listings []Listing `json:"listings"`
}

// SearchResponse is the body of /classifieds/search/v1.
type SearchResponse struct {
	Total int         `json:"total"`
	Buy   ListingSide `json:"buy"`
	Sell  ListingSide `json:"sell"`
}

// NewClient creates a new backpack.tf client.
func NewClient(apiURL string, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 30
	}
	if cfg.PriceMode == "" {
		cfg.PriceMode = PriceModeAvg23
	}

	var quoteCache *cache.Cache
	if cfg.CacheTTL > 0 {
		quoteCache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	limit := rate.Inf
	if cfg.Throttle > 0 {
		limit = rate.Every(cfg.Throttle)
	}

	return &Client{
		apiURL:         apiURL,
		token:          cfg.Token,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(limit, 1),
		cache:          quoteCache,
		priceMode:      cfg.PriceMode,
		pageSize:       cfg.PageSize,
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// Observation converts listing currencies into a tagged price.
func (c Currencies) Observation() models.PriceObservation {
	switch {
	case c.Keys > 0 && c.Metal > 0:
		return models.Mixed(c.Keys, c.Metal)
	case c.Keys > 0:
		return models.Keys(c.Keys)
	default:
		return models.Ref(c.Metal)
	}
}

// Search returns the classifieds listings for itemName. Responses are cached
// per item and concurrent lookups of the same item share one request.
func (c *Client) Search(ctx context.Context, itemName string) (*SearchResponse, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(itemName); ok {
			return v.(*SearchResponse), nil
		}
	}

	v, err, _ := c.group.Do(itemName, func() (interface{}, error) {
		resp, err := c.search(ctx, itemName)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			c.cache.SetDefault(itemName, resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SearchResponse), nil
}

func (c *Client) search(ctx context.Context, itemName string) (*SearchResponse, error) {
	u, err := url.Parse(c.apiURL + "/classifieds/search/v1")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	attrs := ParseItemName(itemName)
	australium := "-1"
	if attrs.Australium {
		australium = "1"
	}

	q := u.Query()
	q.Set("token", c.token)
	q.Set("appid", tf2AppID)
	q.Set("item", attrs.BaseName)
	q.Set("quality", strconv.Itoa(attrs.Quality))
	q.Set("tradable", "1")
	q.Set("craftable", "1")
	q.Set("australium", australium)
	q.Set("killstreak_tier", strconv.Itoa(attrs.KillstreakTier))
	q.Set("intent", "dual")
	q.Set("page_size", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	logger.Debug("Searching classifieds for %s (quality=%d, killstreak_tier=%d, australium=%v)",
		itemName, attrs.Quality, attrs.KillstreakTier, attrs.Australium)

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to search classifieds for %s: %w", itemName, err)
	}
	defer resp.Body.Close()

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode listings for %s: %w", itemName, err)
	}
	return &out, nil
}

// doRequest performs an HTTP GET with linear-backoff retry on transport and 5xx errors.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			resp.Body.Close()
			return nil, fmt.Errorf("request rejected: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

type pricedListing struct {
	obs models.PriceObservation
	ref float64
}

func normalizeListings(listings []Listing, keyPriceRef float64) []pricedListing {
	out := make([]pricedListing, 0, len(listings))
	for _, l := range listings {
		obs := l.Currencies.Observation()
		np, err := pricing.Normalize(obs, keyPriceRef)
		if err != nil || np.RefValue <= 0 {
			continue
		}
		out = append(out, pricedListing{obs: obs, ref: np.RefValue})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ref < out[j].ref })
	return out
}

// AcquisitionQuote returns what it costs to buy itemName, taken from sell listings
// according to the client's price mode.
func (c *Client) AcquisitionQuote(ctx context.Context, itemName string, keyPriceRef float64) (models.PriceObservation, error) {
	resp, err := c.Search(ctx, itemName)
	if err != nil {
		return models.PriceObservation{}, err
	}
	sells := normalizeListings(resp.Sell.Listings, keyPriceRef)
	if len(sells) == 0 {
		return models.PriceObservation{}, &models.InsufficientMarketDataError{Item: itemName, Reason: "no sell listings"}
	}

	if c.priceMode == PriceModeAvg23 && len(sells) >= 3 {
		a, b := sells[1], sells[2]
		if a.obs.Unit == models.UnitKeys && b.obs.Unit == models.UnitKeys {
			return models.Keys((a.obs.Value + b.obs.Value) / 2), nil
		}
		return models.Ref((a.ref + b.ref) / 2), nil
	}
	return sells[0].obs, nil
}

// LiquidationQuote returns what itemName can be sold for right away: the best
// buy order priced strictly below the cheapest sell listing.
func (c *Client) LiquidationQuote(ctx context.Context, itemName string, keyPriceRef float64) (models.PriceObservation, error) {
	resp, err := c.Search(ctx, itemName)
	if err != nil {
		return models.PriceObservation{}, err
	}
	sells := normalizeListings(resp.Sell.Listings, keyPriceRef)
	if len(sells) == 0 {
		return models.PriceObservation{}, &models.InsufficientMarketDataError{Item: itemName, Reason: "no sell listings"}
	}
	minSell := sells[0].ref

	buys := normalizeListings(resp.Buy.Listings, keyPriceRef)
	for i := len(buys) - 1; i >= 0; i-- {
		if buys[i].ref < minSell {
			logger.Debug("Verified buy for %s: %s (min sell %.2f ref)", itemName, buys[i].obs, minSell)
			return buys[i].obs, nil
		}
	}
	return models.PriceObservation{}, &models.InsufficientMarketDataError{Item: itemName, Reason: "no buy order below the lowest sell listing"}
}

// DetectKeyPrice returns the lowest ref-only sell listing for a key.
func (c *Client) DetectKeyPrice(ctx context.Context) (float64, error) {
	resp, err := c.Search(ctx, KeyItemName)
	if err != nil {
		return 0, &models.ConfigurationError{Field: "key_price_ref", Reason: "auto-detect failed: " + err.Error()}
	}

	var best float64
	for _, l := range resp.Sell.Listings {
		if l.Currencies.Keys > 0 || l.Currencies.Metal <= 0 {
			continue
		}
		if best == 0 || l.Currencies.Metal < best {
			best = l.Currencies.Metal
		}
	}
	if best == 0 {
		return 0, &models.ConfigurationError{Field: "key_price_ref", Reason: "auto-detect found no ref-priced key listings"}
	}
	logger.Info("Detected key price: %.2f ref", best)
	return best, nil
}
