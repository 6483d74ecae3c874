package market

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bc1plainview/opnet-audit-kit/core/events"
)

var errNilState = errors.New("market: engine state not configured")

// CollectionClient issues the synchronous verification and transfer calls to
// an external collection contract. Calls either fully succeed with decodable
// data or fail atomically; the engine treats any failure as RemoteCallFailed.
//
// Ownership and approval are never cached. The collection is the single
// source of truth at every ownership-sensitive step, so the engine re-verifies
// on each call.
type CollectionClient interface {
	OwnerOf(collection common.Address, tokenID *uint256.Int) (common.Address, error)
	IsApprovedForAll(collection common.Address, owner, operator common.Address) (bool, error)
	TransferFrom(collection common.Address, from, to common.Address, tokenID *uint256.Int) error
}

// Engine orchestrates the marketplace: it validates requests, enforces access
// control, drives the collection client and mutates the ledgers, registry and
// accounting. All ledger state is exclusively owned by the engine.
type Engine struct {
	st       FieldStore
	client   CollectionClient
	emitter  events.Emitter
	admin    common.Address
	operator common.Address

	listings listingLedger
	bids     bidLedger
	registry collectionRegistry
	platform platformAccounting
}

// NewEngine creates a marketplace engine with a no-op emitter. Callers wire
// state, client and identities through the setters.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the word store backing the ledgers.
func (e *Engine) SetState(st FieldStore) {
	e.st = st
	e.listings = listingLedger{st: st}
	e.bids = bidLedger{st: st}
	e.registry = collectionRegistry{st: st}
	e.platform = platformAccounting{st: st}
}

// SetCollectionClient configures the remote verification client.
func (e *Engine) SetCollectionClient(client CollectionClient) { e.client = client }

// SetAdmin configures the administrator identity that controls the registry
// and the platform fee parameters.
func (e *Engine) SetAdmin(addr common.Address) { e.admin = addr }

// SetOperator configures the marketplace's own identity, the operator that
// sellers must have approved-for-all on their collection.
func (e *Engine) SetOperator(addr common.Address) { e.operator = addr }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Bootstrap seeds the platform fee configuration once, on first start. Later
// starts leave the admin-controlled state untouched.
func (e *Engine) Bootstrap(feeBps uint32, feeRecipient common.Address) error {
	if e.st == nil {
		return errNilState
	}
	if feeBps > MaxPlatformFeeBps {
		return fmt.Errorf("%w: fee bps %d exceeds %d", ErrInvalidArgument, feeBps, MaxPlatformFeeBps)
	}
	if isZeroAddress(feeRecipient) {
		return fmt.Errorf("%w: fee recipient is the null address", ErrInvalidArgument)
	}
	seeded, err := e.st.Bool(ptrPlatformSeeded, nil)
	if err != nil {
		return err
	}
	if seeded {
		return nil
	}
	if err := e.platform.setFeeBps(feeBps); err != nil {
		return err
	}
	if err := e.platform.setFeeRecipient(feeRecipient); err != nil {
		return err
	}
	return e.st.SetBool(ptrPlatformSeeded, nil, true)
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) requireAdmin(caller common.Address) error {
	if caller != e.admin || isZeroAddress(e.admin) {
		return fmt.Errorf("%w: administrator only", ErrUnauthorized)
	}
	return nil
}

func remoteErr(err error) error {
	if errors.Is(err, ErrRemoteCallFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRemoteCallFailed, err)
}

func requirePositive(name string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidArgument, name)
	}
	return nil
}

// ListNFT records a new sale listing after re-verifying, against the
// collection contract, that the caller owns the token and that the
// marketplace operator is approved to move it. Both checks must pass before
// any state is written.
func (e *Engine) ListNFT(caller, collection common.Address, tokenID, price *uint256.Int) (uint64, error) {
	if e.st == nil {
		return 0, errNilState
	}
	if isZeroAddress(collection) {
		return 0, fmt.Errorf("%w: collection is the null address", ErrInvalidArgument)
	}
	if err := requirePositive("price", price); err != nil {
		return 0, err
	}
	owner, err := e.client.OwnerOf(collection, tokenID)
	if err != nil {
		return 0, remoteErr(err)
	}
	if owner != caller {
		return 0, fmt.Errorf("%w: caller does not own token", ErrUnauthorized)
	}
	approved, err := e.client.IsApprovedForAll(collection, caller, e.operator)
	if err != nil {
		return 0, remoteErr(err)
	}
	if !approved {
		return 0, fmt.Errorf("%w: marketplace not approved for caller", ErrUnauthorized)
	}
	id, err := e.listings.create(collection, tokenID, caller, price)
	if err != nil {
		return 0, err
	}
	if err := e.platform.incrementListingCount(); err != nil {
		return 0, err
	}
	e.emit(newListingCreatedEvent(&Listing{
		ID:         id,
		Collection: collection,
		TokenID:    tokenID,
		Seller:     caller,
		Price:      price,
	}))
	return id, nil
}

// CancelListing deactivates an active listing. Only the recorded seller may
// cancel; a deactivated id stays deactivated forever.
func (e *Engine) CancelListing(caller common.Address, id uint64) error {
	if e.st == nil {
		return errNilState
	}
	listing, err := e.listings.requireActive(id)
	if err != nil {
		return err
	}
	if listing.Seller != caller {
		return fmt.Errorf("%w: seller only", ErrUnauthorized)
	}
	if err := e.listings.deactivate(id); err != nil {
		return err
	}
	e.emit(newListingCancelledEvent(id))
	return nil
}

// BuyNFT settles an active listing for the caller. The listing is deactivated
// and the volume recorded before the transfer call; if the transfer then
// fails, the listing stays deactivated and the volume stays incremented.
func (e *Engine) BuyNFT(caller common.Address, id uint64) error {
	if e.st == nil {
		return errNilState
	}
	listing, err := e.listings.requireActive(id)
	if err != nil {
		return err
	}
	if listing.Seller == caller {
		return fmt.Errorf("%w: buyer equals seller", ErrInvalidArgument)
	}
	if err := e.listings.deactivate(id); err != nil {
		return err
	}
	if err := e.platform.recordVolume(listing.Price); err != nil {
		return err
	}
	if err := e.client.TransferFrom(listing.Collection, listing.Seller, caller, listing.TokenID); err != nil {
		return remoteErr(err)
	}
	e.emit(newListingSoldEvent(id, caller, listing.Price))
	return nil
}

// PlaceBid records an open bid. No ownership check happens at bid time; a bid
// may exist for a token that was never listed.
func (e *Engine) PlaceBid(caller, collection common.Address, tokenID, amount *uint256.Int) (uint64, error) {
	if e.st == nil {
		return 0, errNilState
	}
	if isZeroAddress(collection) {
		return 0, fmt.Errorf("%w: collection is the null address", ErrInvalidArgument)
	}
	if err := requirePositive("amount", amount); err != nil {
		return 0, err
	}
	id, err := e.bids.create(collection, tokenID, caller, amount)
	if err != nil {
		return 0, err
	}
	e.emit(newBidPlacedEvent(&Bid{
		ID:         id,
		Collection: collection,
		TokenID:    tokenID,
		Bidder:     caller,
		Amount:     amount,
	}))
	return id, nil
}

// CancelBid deactivates an active bid. Only the recorded bidder may cancel.
func (e *Engine) CancelBid(caller common.Address, id uint64) error {
	if e.st == nil {
		return errNilState
	}
	bid, err := e.bids.requireActive(id)
	if err != nil {
		return err
	}
	if bid.Bidder != caller {
		return fmt.Errorf("%w: bidder only", ErrUnauthorized)
	}
	if err := e.bids.deactivate(id); err != nil {
		return err
	}
	e.emit(newBidCancelledEvent(id))
	return nil
}

// AcceptBid settles an active bid. The caller must presently own the bid's
// token; no prior listing is required. Same state-before-transfer ordering
// and failure asymmetry as BuyNFT.
func (e *Engine) AcceptBid(caller common.Address, id uint64) error {
	if e.st == nil {
		return errNilState
	}
	bid, err := e.bids.requireActive(id)
	if err != nil {
		return err
	}
	owner, err := e.client.OwnerOf(bid.Collection, bid.TokenID)
	if err != nil {
		return remoteErr(err)
	}
	if owner != caller {
		return fmt.Errorf("%w: caller does not own token", ErrUnauthorized)
	}
	if err := e.bids.deactivate(id); err != nil {
		return err
	}
	if err := e.platform.recordVolume(bid.Amount); err != nil {
		return err
	}
	if err := e.client.TransferFrom(bid.Collection, caller, bid.Bidder, bid.TokenID); err != nil {
		return remoteErr(err)
	}
	e.emit(newBidAcceptedEvent(id, caller))
	return nil
}

// RegisterCollection records or overwrites a collection's royalty terms.
// Administrator only; re-registering is an idempotent upsert.
func (e *Engine) RegisterCollection(caller, collection common.Address, royaltyBps uint32, royaltyRecipient common.Address) error {
	if e.st == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if isZeroAddress(collection) {
		return fmt.Errorf("%w: collection is the null address", ErrInvalidArgument)
	}
	if isZeroAddress(royaltyRecipient) {
		return fmt.Errorf("%w: royalty recipient is the null address", ErrInvalidArgument)
	}
	if royaltyBps > MaxRoyaltyBps {
		return fmt.Errorf("%w: royalty bps %d exceeds %d", ErrInvalidArgument, royaltyBps, MaxRoyaltyBps)
	}
	info := CollectionInfo{Registered: true, RoyaltyBps: royaltyBps, RoyaltyRecipient: royaltyRecipient}
	if err := e.registry.put(collection, info); err != nil {
		return err
	}
	e.emit(newCollectionRegisteredEvent(collection, info))
	return nil
}

// UpdateRoyalty changes the royalty terms of an already-registered collection.
func (e *Engine) UpdateRoyalty(caller, collection common.Address, royaltyBps uint32, royaltyRecipient common.Address) error {
	if e.st == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if isZeroAddress(royaltyRecipient) {
		return fmt.Errorf("%w: royalty recipient is the null address", ErrInvalidArgument)
	}
	if royaltyBps > MaxRoyaltyBps {
		return fmt.Errorf("%w: royalty bps %d exceeds %d", ErrInvalidArgument, royaltyBps, MaxRoyaltyBps)
	}
	registered, err := e.registry.isRegistered(collection)
	if err != nil {
		return err
	}
	if !registered {
		return fmt.Errorf("%w: %s", ErrNotRegistered, collection.Hex())
	}
	info := CollectionInfo{Registered: true, RoyaltyBps: royaltyBps, RoyaltyRecipient: royaltyRecipient}
	if err := e.registry.put(collection, info); err != nil {
		return err
	}
	e.emit(newRoyaltyUpdatedEvent(collection, info))
	return nil
}

// SetPlatformFee changes the global fee rate. Administrator only.
func (e *Engine) SetPlatformFee(caller common.Address, bps uint32) error {
	if e.st == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if bps > MaxPlatformFeeBps {
		return fmt.Errorf("%w: fee bps %d exceeds %d", ErrInvalidArgument, bps, MaxPlatformFeeBps)
	}
	if err := e.platform.setFeeBps(bps); err != nil {
		return err
	}
	e.emit(newPlatformFeeUpdatedEvent(bps))
	return nil
}

// SetPlatformFeeRecipient changes the global fee recipient. Administrator
// only.
func (e *Engine) SetPlatformFeeRecipient(caller, addr common.Address) error {
	if e.st == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if isZeroAddress(addr) {
		return fmt.Errorf("%w: fee recipient is the null address", ErrInvalidArgument)
	}
	if err := e.platform.setFeeRecipient(addr); err != nil {
		return err
	}
	e.emit(newPlatformFeeRecipientUpdatedEvent(addr))
	return nil
}

// GetListing returns the raw listing record, including the active flag, so
// callers can tell "exists but inactive" from "never existed". Ids outside
// [1, nextId) are NotFound.
func (e *Engine) GetListing(id uint64) (*Listing, error) {
	if e.st == nil {
		return nil, errNilState
	}
	return e.listings.get(id)
}

// GetBid returns the raw bid record, bounds-checked like GetListing.
func (e *Engine) GetBid(id uint64) (*Bid, error) {
	if e.st == nil {
		return nil, errNilState
	}
	return e.bids.get(id)
}

// GetCollectionInfo returns the royalty configuration with an explicit
// registered flag; unregistered collections read as the zero record.
func (e *Engine) GetCollectionInfo(collection common.Address) (CollectionInfo, error) {
	if e.st == nil {
		return CollectionInfo{}, errNilState
	}
	return e.registry.get(collection)
}

// GetPlatformInfo returns the fee configuration and cumulative counters.
func (e *Engine) GetPlatformInfo() (*PlatformInfo, error) {
	if e.st == nil {
		return nil, errNilState
	}
	return e.platform.get()
}
