package market

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bc1plainview/opnet-audit-kit/core/state"
)

// memStore is a map-backed FieldStore for engine and ledger tests.
type memStore struct {
	words map[string]*uint256.Int
}

func newMemStore() *memStore {
	return &memStore{words: make(map[string]*uint256.Int)}
}

func storeKey(ptr state.Pointer, sub []byte) string {
	return fmt.Sprintf("%d/%x", ptr, sub)
}

func (m *memStore) Word(ptr state.Pointer, sub []byte) (*uint256.Int, error) {
	word, ok := m.words[storeKey(ptr, sub)]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).Set(word), nil
}

func (m *memStore) SetWord(ptr state.Pointer, sub []byte, value *uint256.Int) error {
	word := uint256.NewInt(0)
	if value != nil {
		word.Set(value)
	}
	m.words[storeKey(ptr, sub)] = word
	return nil
}

func (m *memStore) U64(ptr state.Pointer, sub []byte) (uint64, error) {
	word, err := m.Word(ptr, sub)
	if err != nil {
		return 0, err
	}
	return word.Uint64(), nil
}

func (m *memStore) SetU64(ptr state.Pointer, sub []byte, value uint64) error {
	return m.SetWord(ptr, sub, uint256.NewInt(value))
}

func (m *memStore) Address(ptr state.Pointer, sub []byte) (common.Address, error) {
	word, err := m.Word(ptr, sub)
	if err != nil {
		return common.Address{}, err
	}
	buf := word.Bytes32()
	return common.BytesToAddress(buf[12:]), nil
}

func (m *memStore) SetAddress(ptr state.Pointer, sub []byte, addr common.Address) error {
	word := new(uint256.Int)
	word.SetBytes(addr.Bytes())
	return m.SetWord(ptr, sub, word)
}

func (m *memStore) Bool(ptr state.Pointer, sub []byte) (bool, error) {
	word, err := m.Word(ptr, sub)
	if err != nil {
		return false, err
	}
	return !word.IsZero(), nil
}

func (m *memStore) SetBool(ptr state.Pointer, sub []byte, value bool) error {
	word := uint256.NewInt(0)
	if value {
		word.SetOne()
	}
	return m.SetWord(ptr, sub, word)
}

// fakeCollection is a deterministic in-memory CollectionClient. Owners are
// keyed by collection and token id; approvals by collection, owner and
// operator.
type fakeCollection struct {
	owners       map[string]common.Address
	approvals    map[string]bool
	failOwnerOf  bool
	failApproval bool
	failTransfer bool
	transfers    int
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{
		owners:    make(map[string]common.Address),
		approvals: make(map[string]bool),
	}
}

func ownerKey(collection common.Address, tokenID *uint256.Int) string {
	return fmt.Sprintf("%s/%s", collection.Hex(), tokenID.Dec())
}

func approvalKey(collection, owner, operator common.Address) string {
	return fmt.Sprintf("%s/%s/%s", collection.Hex(), owner.Hex(), operator.Hex())
}

func (f *fakeCollection) setOwner(collection common.Address, tokenID *uint256.Int, owner common.Address) {
	f.owners[ownerKey(collection, tokenID)] = owner
}

func (f *fakeCollection) approveAll(collection, owner, operator common.Address) {
	f.approvals[approvalKey(collection, owner, operator)] = true
}

func (f *fakeCollection) OwnerOf(collection common.Address, tokenID *uint256.Int) (common.Address, error) {
	if f.failOwnerOf {
		return common.Address{}, fmt.Errorf("ownerOf reverted")
	}
	owner, ok := f.owners[ownerKey(collection, tokenID)]
	if !ok {
		return common.Address{}, fmt.Errorf("unknown token")
	}
	return owner, nil
}

func (f *fakeCollection) IsApprovedForAll(collection common.Address, owner, operator common.Address) (bool, error) {
	if f.failApproval {
		return false, fmt.Errorf("isApprovedForAll reverted")
	}
	return f.approvals[approvalKey(collection, owner, operator)], nil
}

func (f *fakeCollection) TransferFrom(collection common.Address, from, to common.Address, tokenID *uint256.Int) error {
	if f.failTransfer {
		return fmt.Errorf("transferFrom reverted")
	}
	key := ownerKey(collection, tokenID)
	if f.owners[key] != from {
		return fmt.Errorf("from is not the owner")
	}
	f.owners[key] = to
	f.transfers++
	return nil
}

func newTestAddress(suffix byte) common.Address {
	var addr common.Address
	addr[common.AddressLength-1] = suffix
	addr[0] = 0x11
	return addr
}
