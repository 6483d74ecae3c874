package market

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bc1plainview/opnet-audit-kit/core/events"
)

const (
	EventTypeListingCreated              = "market.listing.created"
	EventTypeListingCancelled            = "market.listing.cancelled"
	EventTypeListingSold                 = "market.listing.sold"
	EventTypeBidPlaced                   = "market.bid.placed"
	EventTypeBidCancelled                = "market.bid.cancelled"
	EventTypeBidAccepted                 = "market.bid.accepted"
	EventTypeCollectionRegistered        = "market.collection.registered"
	EventTypeRoyaltyUpdated              = "market.collection.royalty_updated"
	EventTypePlatformFeeUpdated          = "market.platform.fee_updated"
	EventTypePlatformFeeRecipientUpdated = "market.platform.fee_recipient_updated"
)

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func newListingCreatedEvent(l *Listing) events.Event {
	return events.Event{Type: EventTypeListingCreated, Attributes: map[string]string{
		"id":         formatID(l.ID),
		"collection": l.Collection.Hex(),
		"tokenId":    formatAmount(l.TokenID),
		"seller":     l.Seller.Hex(),
		"price":      formatAmount(l.Price),
	}}
}

func newListingCancelledEvent(id uint64) events.Event {
	return events.Event{Type: EventTypeListingCancelled, Attributes: map[string]string{
		"id": formatID(id),
	}}
}

func newListingSoldEvent(id uint64, buyer common.Address, price *uint256.Int) events.Event {
	return events.Event{Type: EventTypeListingSold, Attributes: map[string]string{
		"id":    formatID(id),
		"buyer": buyer.Hex(),
		"price": formatAmount(price),
	}}
}

func newBidPlacedEvent(b *Bid) events.Event {
	return events.Event{Type: EventTypeBidPlaced, Attributes: map[string]string{
		"id":         formatID(b.ID),
		"collection": b.Collection.Hex(),
		"tokenId":    formatAmount(b.TokenID),
		"bidder":     b.Bidder.Hex(),
		"amount":     formatAmount(b.Amount),
	}}
}

func newBidCancelledEvent(id uint64) events.Event {
	return events.Event{Type: EventTypeBidCancelled, Attributes: map[string]string{
		"id": formatID(id),
	}}
}

func newBidAcceptedEvent(id uint64, seller common.Address) events.Event {
	return events.Event{Type: EventTypeBidAccepted, Attributes: map[string]string{
		"id":     formatID(id),
		"seller": seller.Hex(),
	}}
}

func newCollectionRegisteredEvent(collection common.Address, info CollectionInfo) events.Event {
	return events.Event{Type: EventTypeCollectionRegistered, Attributes: map[string]string{
		"collection":       collection.Hex(),
		"royaltyBps":       strconv.FormatUint(uint64(info.RoyaltyBps), 10),
		"royaltyRecipient": info.RoyaltyRecipient.Hex(),
	}}
}

func newRoyaltyUpdatedEvent(collection common.Address, info CollectionInfo) events.Event {
	return events.Event{Type: EventTypeRoyaltyUpdated, Attributes: map[string]string{
		"collection":       collection.Hex(),
		"royaltyBps":       strconv.FormatUint(uint64(info.RoyaltyBps), 10),
		"royaltyRecipient": info.RoyaltyRecipient.Hex(),
	}}
}

func newPlatformFeeUpdatedEvent(bps uint32) events.Event {
	return events.Event{Type: EventTypePlatformFeeUpdated, Attributes: map[string]string{
		"feeBps": strconv.FormatUint(uint64(bps), 10),
	}}
}

func newPlatformFeeRecipientUpdatedEvent(addr common.Address) events.Event {
	return events.Event{Type: EventTypePlatformFeeRecipientUpdated, Attributes: map[string]string{
		"feeRecipient": addr.Hex(),
	}}
}
