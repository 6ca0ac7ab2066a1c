// Package feed manages the feed catalog and the FIFO feed inventory. Stock
// is serialized per feed name; a reservation that would drain a lot below
// the low-water mark triggers an automatic replenishment purchase instead of
// blocking the caller.
package feed

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aquarian247/aquasim/internal/stage"
)

// ErrUnknownFeed is returned when a stage's feed name has no catalog entry.
var ErrUnknownFeed = fmt.Errorf("unknown feed name")

// lot is one purchased parcel of feed, consumed oldest-first.
type lot struct {
	RemainingKg float64
	PurchasedOn string // YYYY-MM-DD
}

// Purchase records one automatic replenishment.
type Purchase struct {
	Feed     string  `json:"feed"`
	AmountKg float64 `json:"amountKg"`
	Date     string  `json:"date"`
}

// stock is the serialized per-feed state.
type stock struct {
	mu         sync.Mutex
	lots       []lot
	capacityKg float64
}

// Inventory holds all feed stocks.
type Inventory struct {
	mu     sync.RWMutex
	stocks map[string]*stock
}

// lowWaterFraction triggers replenishment when remaining stock falls below
// this share of capacity.
const lowWaterFraction = 0.20

// NewInventory creates an inventory pre-stocked with one full lot per feed
// the lifecycle stages require.
func NewInventory(capacityKg float64, initialDate string) *Inventory {
	inv := &Inventory{stocks: make(map[string]*stock)}
	for _, s := range stage.All() {
		name, ok := s.FeedName()
		if !ok {
			continue
		}
		inv.stocks[name] = &stock{
			capacityKg: capacityKg,
			lots:       []lot{{RemainingKg: capacityKg, PurchasedOn: initialDate}},
		}
	}
	return inv
}

// Consume draws the requested amount FIFO from the named feed's lots. When
// the post-draw level falls below the low-water mark, a replenishment
// purchase tops the stock back to capacity and is returned for event
// emission. Consume never fails on quantity; it fails only on unknown feed.
func (inv *Inventory) Consume(feedName string, amountKg float64, date string) (*Purchase, error) {
	inv.mu.RLock()
	st, ok := inv.stocks[feedName]
	inv.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, feedName)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var purchase *Purchase

	// Shortfall cannot stall the simulation: replenish first if the draw
	// would exceed what is on hand.
	if st.remaining() < amountKg {
		purchase = st.replenish(date)
	}

	left := amountKg
	for left > 0 && len(st.lots) > 0 {
		l := &st.lots[0]
		if l.RemainingKg > left {
			l.RemainingKg -= left
			left = 0
			break
		}
		left -= l.RemainingKg
		st.lots = st.lots[1:]
	}
	if left > 0 {
		// Capacity smaller than a single day's demand; top up again.
		log.Warn().Str("feed", feedName).Float64("shortfallKg", left).
			Msg("Feed demand exceeded full stock capacity, replenishing again")
		purchase = st.replenish(date)
		st.lots[len(st.lots)-1].RemainingKg -= left
	}

	if purchase == nil && st.remaining() < lowWaterFraction*st.capacityKg {
		purchase = st.replenish(date)
	}
	if purchase != nil {
		purchase.Feed = feedName
	}
	return purchase, nil
}

// remaining sums the stock's lots. Caller holds the lock.
func (st *stock) remaining() float64 {
	total := 0.0
	for _, l := range st.lots {
		total += l.RemainingKg
	}
	return total
}

// replenish appends a new lot topping the stock back to capacity. Caller
// holds the lock.
func (st *stock) replenish(date string) *Purchase {
	amount := st.capacityKg - st.remaining()
	if amount <= 0 {
		return nil
	}
	st.lots = append(st.lots, lot{RemainingKg: amount, PurchasedOn: date})
	return &Purchase{AmountKg: amount, Date: date}
}

// RemainingKg reports the current stock level of a feed.
func (inv *Inventory) RemainingKg(feedName string) float64 {
	inv.mu.RLock()
	st, ok := inv.stocks[feedName]
	inv.mu.RUnlock()
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.remaining()
}
