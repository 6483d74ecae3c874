// Package collection implements the wire client for the three verification
// and transfer calls the marketplace issues against external collection
// contracts.
package collection

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/bc1plainview/opnet-audit-kit/native/market"
)

// ContractCaller delivers a single synchronous request to a contract and
// returns its response data. The host execution environment provides it; a
// call either fully succeeds or fails with no partial effects observable
// here.
type ContractCaller interface {
	Call(contract common.Address, data []byte) ([]byte, error)
}

// Method selectors, 4-byte keccak prefixes of the canonical signatures.
var (
	selOwnerOf          = selector("ownerOf(uint256)")
	selIsApprovedForAll = selector("isApprovedForAll(address,address)")
	selTransferFrom     = selector("transferFrom(address,address,uint256)")
)

func selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], ethcrypto.Keccak256([]byte(signature))[:4])
	return sel
}

// Client encodes collection calls as selector-prefixed 32-byte-word argument
// tuples and decodes their fixed-width responses. Any non-success response is
// treated as a failed remote call.
type Client struct {
	caller ContractCaller
}

// NewClient creates a collection client over the given caller.
func NewClient(caller ContractCaller) *Client {
	return &Client{caller: caller}
}

var _ market.CollectionClient = (*Client)(nil)

func (c *Client) call(contract common.Address, sel [4]byte, words ...[32]byte) ([]byte, error) {
	data := make([]byte, 4+32*len(words))
	copy(data, sel[:])
	for i, word := range words {
		copy(data[4+32*i:], word[:])
	}
	out, err := c.caller.Call(contract, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrRemoteCallFailed, err)
	}
	return out, nil
}

// OwnerOf resolves the current owner of the token on the collection.
func (c *Client) OwnerOf(contract common.Address, tokenID *uint256.Int) (common.Address, error) {
	out, err := c.call(contract, selOwnerOf, wordFromU256(tokenID))
	if err != nil {
		return common.Address{}, err
	}
	if len(out) != 32 {
		return common.Address{}, fmt.Errorf("%w: ownerOf returned %d bytes", market.ErrRemoteCallFailed, len(out))
	}
	return common.BytesToAddress(out[12:]), nil
}

// IsApprovedForAll reports whether the operator may move the owner's tokens
// on the collection.
func (c *Client) IsApprovedForAll(contract common.Address, owner, operator common.Address) (bool, error) {
	out, err := c.call(contract, selIsApprovedForAll, wordFromAddress(owner), wordFromAddress(operator))
	if err != nil {
		return false, err
	}
	if len(out) != 32 {
		return false, fmt.Errorf("%w: isApprovedForAll returned %d bytes", market.ErrRemoteCallFailed, len(out))
	}
	return !allZero(out), nil
}

// TransferFrom executes the ownership transfer on the collection. An empty
// response and a non-zero boolean word both count as success; a zero word is
// a failure.
func (c *Client) TransferFrom(contract common.Address, from, to common.Address, tokenID *uint256.Int) error {
	out, err := c.call(contract, selTransferFrom, wordFromAddress(from), wordFromAddress(to), wordFromU256(tokenID))
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) != 32 {
		return fmt.Errorf("%w: transferFrom returned %d bytes", market.ErrRemoteCallFailed, len(out))
	}
	if allZero(out) {
		return fmt.Errorf("%w: transferFrom reported failure", market.ErrRemoteCallFailed)
	}
	return nil
}

func wordFromU256(v *uint256.Int) [32]byte {
	if v == nil {
		return [32]byte{}
	}
	return v.Bytes32()
}

func wordFromAddress(addr common.Address) [32]byte {
	var word [32]byte
	copy(word[12:], addr.Bytes())
	return word
}

func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
