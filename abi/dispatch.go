package abi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bc1plainview/opnet-audit-kit/native/market"
)

// Canonical method signatures of the public surface.
const (
	SigListNFT                 = "listNFT(address,uint256,uint256)"
	SigCancelListing           = "cancelListing(uint256)"
	SigBuyNFT                  = "buyNFT(uint256)"
	SigPlaceBid                = "placeBid(address,uint256,uint256)"
	SigCancelBid               = "cancelBid(uint256)"
	SigAcceptBid               = "acceptBid(uint256)"
	SigRegisterCollection      = "registerCollection(address,uint256,address)"
	SigSetPlatformFee          = "setPlatformFee(uint256)"
	SigSetPlatformFeeRecipient = "setPlatformFeeRecipient(address)"
	SigUpdateRoyalty           = "updateRoyalty(address,uint256,address)"
	SigGetListing              = "getListing(uint256)"
	SigGetBid                  = "getBid(uint256)"
	SigGetCollectionInfo       = "getCollectionInfo(address)"
	SigGetPlatformInfo         = "getPlatformInfo()"
)

type handler struct {
	name string
	fn   func(e *market.Engine, caller common.Address, r *Reader) ([]byte, error)
}

// Dispatcher routes selector-prefixed calldata to engine operations and
// encodes their fixed-width results.
type Dispatcher struct {
	engine   *market.Engine
	handlers map[[4]byte]handler
}

// NewDispatcher builds the dispatch table for the given engine.
func NewDispatcher(engine *market.Engine) *Dispatcher {
	d := &Dispatcher{engine: engine, handlers: make(map[[4]byte]handler)}
	d.register(SigListNFT, listNFT)
	d.register(SigCancelListing, cancelListing)
	d.register(SigBuyNFT, buyNFT)
	d.register(SigPlaceBid, placeBid)
	d.register(SigCancelBid, cancelBid)
	d.register(SigAcceptBid, acceptBid)
	d.register(SigRegisterCollection, registerCollection)
	d.register(SigSetPlatformFee, setPlatformFee)
	d.register(SigSetPlatformFeeRecipient, setPlatformFeeRecipient)
	d.register(SigUpdateRoyalty, updateRoyalty)
	d.register(SigGetListing, getListing)
	d.register(SigGetBid, getBid)
	d.register(SigGetCollectionInfo, getCollectionInfo)
	d.register(SigGetPlatformInfo, getPlatformInfo)
	return d
}

func (d *Dispatcher) register(signature string, fn func(*market.Engine, common.Address, *Reader) ([]byte, error)) {
	d.handlers[Selector(signature)] = handler{name: methodName(signature), fn: fn}
}

func methodName(signature string) string {
	for i := 0; i < len(signature); i++ {
		if signature[i] == '(' {
			return signature[:i]
		}
	}
	return signature
}

// MethodName resolves a selector to its method name, for logging and metrics.
func (d *Dispatcher) MethodName(data []byte) string {
	if len(data) < 4 {
		return "invalid"
	}
	h, ok := d.handlers[[4]byte(data[:4])]
	if !ok {
		return "unknown"
	}
	return h.name
}

// Dispatch decodes calldata, runs the operation as caller and returns the
// fixed-width result. The engine applies each call atomically; a returned
// error means the operation was rejected (subject to the documented
// buy/accept transfer asymmetry).
func (d *Dispatcher) Dispatch(caller common.Address, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: calldata shorter than a selector", ErrBadCalldata)
	}
	h, ok := d.handlers[[4]byte(data[:4])]
	if !ok {
		return nil, fmt.Errorf("%w: selector %x", ErrUnknownMethod, data[:4])
	}
	r := NewReader(data[4:])
	out, err := h.fn(d.engine, caller, r)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func listNFT(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	collection, err := r.Address()
	if err != nil {
		return nil, err
	}
	tokenID, err := r.Word()
	if err != nil {
		return nil, err
	}
	price, err := r.Word()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	id, err := e.ListNFT(caller, collection, tokenID, price)
	if err != nil {
		return nil, err
	}
	return new(Writer).U64(id).Bytes(), nil
}

func cancelListing(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	id, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.CancelListing(caller, id); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func buyNFT(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	id, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.BuyNFT(caller, id); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func placeBid(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	collection, err := r.Address()
	if err != nil {
		return nil, err
	}
	tokenID, err := r.Word()
	if err != nil {
		return nil, err
	}
	amount, err := r.Word()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	id, err := e.PlaceBid(caller, collection, tokenID, amount)
	if err != nil {
		return nil, err
	}
	return new(Writer).U64(id).Bytes(), nil
}

func cancelBid(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	id, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.CancelBid(caller, id); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func acceptBid(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	id, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.AcceptBid(caller, id); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func registerCollection(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	collection, err := r.Address()
	if err != nil {
		return nil, err
	}
	bps, err := r.U32()
	if err != nil {
		return nil, err
	}
	recipient, err := r.Address()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.RegisterCollection(caller, collection, bps, recipient); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func setPlatformFee(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	bps, err := r.U32()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.SetPlatformFee(caller, bps); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func setPlatformFeeRecipient(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	addr, err := r.Address()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.SetPlatformFeeRecipient(caller, addr); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func updateRoyalty(e *market.Engine, caller common.Address, r *Reader) ([]byte, error) {
	collection, err := r.Address()
	if err != nil {
		return nil, err
	}
	bps, err := r.U32()
	if err != nil {
		return nil, err
	}
	recipient, err := r.Address()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	if err := e.UpdateRoyalty(caller, collection, bps, recipient); err != nil {
		return nil, err
	}
	return new(Writer).Bool(true).Bytes(), nil
}

func getListing(e *market.Engine, _ common.Address, r *Reader) ([]byte, error) {
	id, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	listing, err := e.GetListing(id)
	if err != nil {
		return nil, err
	}
	return new(Writer).
		Address(listing.Collection).
		Word(listing.TokenID).
		Address(listing.Seller).
		Word(listing.Price).
		BoolWord(listing.Active).
		Bytes(), nil
}

func getBid(e *market.Engine, _ common.Address, r *Reader) ([]byte, error) {
	id, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	bid, err := e.GetBid(id)
	if err != nil {
		return nil, err
	}
	return new(Writer).
		Address(bid.Collection).
		Word(bid.TokenID).
		Address(bid.Bidder).
		Word(bid.Amount).
		BoolWord(bid.Active).
		Bytes(), nil
}

func getCollectionInfo(e *market.Engine, _ common.Address, r *Reader) ([]byte, error) {
	collection, err := r.Address()
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	info, err := e.GetCollectionInfo(collection)
	if err != nil {
		return nil, err
	}
	return new(Writer).
		BoolWord(info.Registered).
		U64(uint64(info.RoyaltyBps)).
		Address(info.RoyaltyRecipient).
		Bytes(), nil
}

func getPlatformInfo(e *market.Engine, _ common.Address, r *Reader) ([]byte, error) {
	if err := r.Done(); err != nil {
		return nil, err
	}
	info, err := e.GetPlatformInfo()
	if err != nil {
		return nil, err
	}
	return new(Writer).
		U64(uint64(info.FeeBps)).
		Address(info.FeeRecipient).
		Word(info.TotalVolume).
		U64(info.TotalListings).
		Bytes(), nil
}
