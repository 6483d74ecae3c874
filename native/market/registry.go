package market

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// collectionRegistry holds the per-collection royalty configuration, sub-keyed
// by the collection address.
type collectionRegistry struct {
	st FieldStore
}

func (r collectionRegistry) put(collection common.Address, info CollectionInfo) error {
	sub := collection.Bytes()
	if err := r.st.SetBool(ptrCollectionRegistered, sub, info.Registered); err != nil {
		return err
	}
	if err := r.st.SetU64(ptrCollectionRoyaltyBps, sub, uint64(info.RoyaltyBps)); err != nil {
		return err
	}
	return r.st.SetAddress(ptrCollectionRoyaltyRecipient, sub, info.RoyaltyRecipient)
}

func (r collectionRegistry) get(collection common.Address) (CollectionInfo, error) {
	sub := collection.Bytes()
	registered, err := r.st.Bool(ptrCollectionRegistered, sub)
	if err != nil {
		return CollectionInfo{}, err
	}
	bps, err := r.st.U64(ptrCollectionRoyaltyBps, sub)
	if err != nil {
		return CollectionInfo{}, err
	}
	recipient, err := r.st.Address(ptrCollectionRoyaltyRecipient, sub)
	if err != nil {
		return CollectionInfo{}, err
	}
	return CollectionInfo{
		Registered:       registered,
		RoyaltyBps:       uint32(bps),
		RoyaltyRecipient: recipient,
	}, nil
}

func (r collectionRegistry) isRegistered(collection common.Address) (bool, error) {
	return r.st.Bool(ptrCollectionRegistered, collection.Bytes())
}

// platformAccounting holds the singleton fee configuration and the cumulative
// trade counters.
type platformAccounting struct {
	st FieldStore
}

func (p platformAccounting) setFeeBps(bps uint32) error {
	return p.st.SetU64(ptrPlatformFeeBps, nil, uint64(bps))
}

func (p platformAccounting) setFeeRecipient(addr common.Address) error {
	return p.st.SetAddress(ptrPlatformFeeRecipient, nil, addr)
}

// recordVolume adds the settlement amount to the cumulative volume. Overflow
// of the 256-bit counter fails the whole call; the counter never wraps.
func (p platformAccounting) recordVolume(amount *uint256.Int) error {
	volume, err := p.st.Word(ptrPlatformVolume, nil)
	if err != nil {
		return err
	}
	updated, overflow := new(uint256.Int).AddOverflow(volume, amount)
	if overflow {
		return fmt.Errorf("%w: total volume", ErrOverflow)
	}
	return p.st.SetWord(ptrPlatformVolume, nil, updated)
}

// incrementListingCount bumps the cumulative creation counter by exactly one.
func (p platformAccounting) incrementListingCount() error {
	count, err := p.st.U64(ptrPlatformListings, nil)
	if err != nil {
		return err
	}
	return p.st.SetU64(ptrPlatformListings, nil, count+1)
}

func (p platformAccounting) get() (*PlatformInfo, error) {
	bps, err := p.st.U64(ptrPlatformFeeBps, nil)
	if err != nil {
		return nil, err
	}
	recipient, err := p.st.Address(ptrPlatformFeeRecipient, nil)
	if err != nil {
		return nil, err
	}
	volume, err := p.st.Word(ptrPlatformVolume, nil)
	if err != nil {
		return nil, err
	}
	listings, err := p.st.U64(ptrPlatformListings, nil)
	if err != nil {
		return nil, err
	}
	return &PlatformInfo{
		FeeBps:        uint32(bps),
		FeeRecipient:  recipient,
		TotalVolume:   volume,
		TotalListings: listings,
	}, nil
}
