package market

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bc1plainview/opnet-audit-kit/core/state"
)

// FieldStore is the word-level storage backend the marketplace ledgers are
// laid out on. The production implementation is state.Manager; tests inject a
// map-backed fake.
type FieldStore interface {
	Word(ptr state.Pointer, sub []byte) (*uint256.Int, error)
	SetWord(ptr state.Pointer, sub []byte, value *uint256.Int) error
	U64(ptr state.Pointer, sub []byte) (uint64, error)
	SetU64(ptr state.Pointer, sub []byte, value uint64) error
	Address(ptr state.Pointer, sub []byte) (common.Address, error)
	SetAddress(ptr state.Pointer, sub []byte, addr common.Address) error
	Bool(ptr state.Pointer, sub []byte) (bool, error)
	SetBool(ptr state.Pointer, sub []byte, value bool) error
}

// Storage layout: one pointer per field. Scalar fields use the pointer alone;
// listing/bid fields are sub-keyed by the 8-byte big-endian record id and
// collection fields by the 20-byte collection address.
const (
	ptrListingCounter state.Pointer = iota + 1
	ptrBidCounter
	ptrPlatformSeeded
	ptrPlatformFeeBps
	ptrPlatformFeeRecipient
	ptrPlatformVolume
	ptrPlatformListings
	ptrListingCollection
	ptrListingTokenID
	ptrListingSeller
	ptrListingPrice
	ptrListingActive
	ptrBidCollection
	ptrBidTokenID
	ptrBidBidder
	ptrBidAmount
	ptrBidActive
	ptrCollectionRegistered
	ptrCollectionRoyaltyBps
	ptrCollectionRoyaltyRecipient
)

func idKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

// listingLedger owns the listing records and their monotonic id sequence.
// Ids are dense, start at 1 and are never reused; records are deactivated,
// never deleted.
type listingLedger struct {
	st FieldStore
}

func (l listingLedger) nextID() (uint64, error) {
	counter, err := l.st.U64(ptrListingCounter, nil)
	if err != nil {
		return 0, err
	}
	if counter == 0 {
		counter = 1
	}
	if err := l.st.SetU64(ptrListingCounter, nil, counter+1); err != nil {
		return 0, err
	}
	return counter, nil
}

func (l listingLedger) bound() (uint64, error) {
	counter, err := l.st.U64(ptrListingCounter, nil)
	if err != nil {
		return 0, err
	}
	if counter == 0 {
		counter = 1
	}
	return counter, nil
}

func (l listingLedger) create(collection common.Address, tokenID *uint256.Int, seller common.Address, price *uint256.Int) (uint64, error) {
	id, err := l.nextID()
	if err != nil {
		return 0, err
	}
	sub := idKey(id)
	if err := l.st.SetAddress(ptrListingCollection, sub, collection); err != nil {
		return 0, err
	}
	if err := l.st.SetWord(ptrListingTokenID, sub, tokenID); err != nil {
		return 0, err
	}
	if err := l.st.SetAddress(ptrListingSeller, sub, seller); err != nil {
		return 0, err
	}
	if err := l.st.SetWord(ptrListingPrice, sub, price); err != nil {
		return 0, err
	}
	if err := l.st.SetBool(ptrListingActive, sub, true); err != nil {
		return 0, err
	}
	return id, nil
}

func (l listingLedger) get(id uint64) (*Listing, error) {
	bound, err := l.bound()
	if err != nil {
		return nil, err
	}
	if id == 0 || id >= bound {
		return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
	}
	sub := idKey(id)
	collection, err := l.st.Address(ptrListingCollection, sub)
	if err != nil {
		return nil, err
	}
	tokenID, err := l.st.Word(ptrListingTokenID, sub)
	if err != nil {
		return nil, err
	}
	seller, err := l.st.Address(ptrListingSeller, sub)
	if err != nil {
		return nil, err
	}
	price, err := l.st.Word(ptrListingPrice, sub)
	if err != nil {
		return nil, err
	}
	active, err := l.st.Bool(ptrListingActive, sub)
	if err != nil {
		return nil, err
	}
	return &Listing{
		ID:         id,
		Collection: collection,
		TokenID:    tokenID,
		Seller:     seller,
		Price:      price,
		Active:     active,
	}, nil
}

func (l listingLedger) requireActive(id uint64) (*Listing, error) {
	listing, err := l.get(id)
	if err != nil {
		return nil, err
	}
	if !listing.Active {
		return nil, fmt.Errorf("%w: listing %d", ErrInactive, id)
	}
	return listing, nil
}

func (l listingLedger) deactivate(id uint64) error {
	return l.st.SetBool(ptrListingActive, idKey(id), false)
}

// bidLedger mirrors listingLedger on an independent id sequence and
// active-set.
type bidLedger struct {
	st FieldStore
}

func (b bidLedger) nextID() (uint64, error) {
	counter, err := b.st.U64(ptrBidCounter, nil)
	if err != nil {
		return 0, err
	}
	if counter == 0 {
		counter = 1
	}
	if err := b.st.SetU64(ptrBidCounter, nil, counter+1); err != nil {
		return 0, err
	}
	return counter, nil
}

func (b bidLedger) bound() (uint64, error) {
	counter, err := b.st.U64(ptrBidCounter, nil)
	if err != nil {
		return 0, err
	}
	if counter == 0 {
		counter = 1
	}
	return counter, nil
}

func (b bidLedger) create(collection common.Address, tokenID *uint256.Int, bidder common.Address, amount *uint256.Int) (uint64, error) {
	id, err := b.nextID()
	if err != nil {
		return 0, err
	}
	sub := idKey(id)
	if err := b.st.SetAddress(ptrBidCollection, sub, collection); err != nil {
		return 0, err
	}
	if err := b.st.SetWord(ptrBidTokenID, sub, tokenID); err != nil {
		return 0, err
	}
	if err := b.st.SetAddress(ptrBidBidder, sub, bidder); err != nil {
		return 0, err
	}
	if err := b.st.SetWord(ptrBidAmount, sub, amount); err != nil {
		return 0, err
	}
	if err := b.st.SetBool(ptrBidActive, sub, true); err != nil {
		return 0, err
	}
	return id, nil
}

func (b bidLedger) get(id uint64) (*Bid, error) {
	bound, err := b.bound()
	if err != nil {
		return nil, err
	}
	if id == 0 || id >= bound {
		return nil, fmt.Errorf("%w: bid %d", ErrNotFound, id)
	}
	sub := idKey(id)
	collection, err := b.st.Address(ptrBidCollection, sub)
	if err != nil {
		return nil, err
	}
	tokenID, err := b.st.Word(ptrBidTokenID, sub)
	if err != nil {
		return nil, err
	}
	bidder, err := b.st.Address(ptrBidBidder, sub)
	if err != nil {
		return nil, err
	}
	amount, err := b.st.Word(ptrBidAmount, sub)
	if err != nil {
		return nil, err
	}
	active, err := b.st.Bool(ptrBidActive, sub)
	if err != nil {
		return nil, err
	}
	return &Bid{
		ID:         id,
		Collection: collection,
		TokenID:    tokenID,
		Bidder:     bidder,
		Amount:     amount,
		Active:     active,
	}, nil
}

func (b bidLedger) requireActive(id uint64) (*Bid, error) {
	bid, err := b.get(id)
	if err != nil {
		return nil, err
	}
	if !bid.Active {
		return nil, fmt.Errorf("%w: bid %d", ErrInactive, id)
	}
	return bid, nil
}

func (b bidLedger) deactivate(id uint64) error {
	return b.st.SetBool(ptrBidActive, idKey(id), false)
}
