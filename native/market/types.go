package market

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// MaxRoyaltyBps caps per-collection royalty rates at 10%.
	MaxRoyaltyBps uint32 = 1_000
	// MaxPlatformFeeBps caps the global platform fee at 5%.
	MaxPlatformFeeBps uint32 = 500
)

// Listing is an active offer to sell one token at a fixed price. The economic
// terms are immutable after creation; only Active ever changes, and only from
// true to false.
type Listing struct {
	ID         uint64
	Collection common.Address
	TokenID    *uint256.Int
	Seller     common.Address
	Price      *uint256.Int
	Active     bool
}

// Clone returns a deep copy so callers can mutate freely.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.TokenID = cloneWord(l.TokenID)
	clone.Price = cloneWord(l.Price)
	return &clone
}

// Bid is an active offer to buy one token at a fixed amount, independent of
// any listing. Same lifecycle as Listing, on its own id space.
type Bid struct {
	ID         uint64
	Collection common.Address
	TokenID    *uint256.Int
	Bidder     common.Address
	Amount     *uint256.Int
	Active     bool
}

// Clone returns a deep copy so callers can mutate freely.
func (b *Bid) Clone() *Bid {
	if b == nil {
		return nil
	}
	clone := *b
	clone.TokenID = cloneWord(b.TokenID)
	clone.Amount = cloneWord(b.Amount)
	return &clone
}

// CollectionInfo is the per-collection royalty configuration. Only the
// platform administrator writes it.
type CollectionInfo struct {
	Registered       bool
	RoyaltyBps       uint32
	RoyaltyRecipient common.Address
}

// PlatformInfo is the singleton fee configuration and the cumulative trade
// counters. TotalListings counts creations, never the currently-active set.
type PlatformInfo struct {
	FeeBps        uint32
	FeeRecipient  common.Address
	TotalVolume   *uint256.Int
	TotalListings uint64
}

// Clone returns a deep copy so callers can mutate freely.
func (p *PlatformInfo) Clone() *PlatformInfo {
	if p == nil {
		return nil
	}
	clone := *p
	clone.TotalVolume = cloneWord(p.TotalVolume)
	return &clone
}

func cloneWord(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}

func isZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
