package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/bc1plainview/opnet-audit-kit/storage"
)

// Pointer identifies a single contract storage field. Scalar fields use the
// pointer alone; record fields append a sub-key (record id, address).
type Pointer uint16

// WordSize is the fixed width of every stored value.
const WordSize = 32

var errWordWidth = errors.New("state: stored value is not a 32-byte word")

// Manager is the persistent field store: pointer plus optional sub-key mapped
// to one 32-byte word. Slots that were never written read as the zero word.
// Writes are immediately durable; there is no rollback.
type Manager struct {
	db storage.Database
}

// NewManager creates a field store over the given database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func slotKey(ptr Pointer, sub []byte) []byte {
	buf := make([]byte, 2+len(sub))
	binary.BigEndian.PutUint16(buf, uint16(ptr))
	copy(buf[2:], sub)
	return ethcrypto.Keccak256(buf)
}

// Word reads the 32-byte word stored at (ptr, sub). Unwritten slots yield the
// zero word.
func (m *Manager) Word(ptr Pointer, sub []byte) (*uint256.Int, error) {
	raw, err := m.db.Get(slotKey(ptr, sub))
	if errors.Is(err, storage.ErrNotFound) {
		return uint256.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) != WordSize {
		return nil, fmt.Errorf("%w: got %d bytes", errWordWidth, len(raw))
	}
	word := new(uint256.Int)
	word.SetBytes32(raw)
	return word, nil
}

// SetWord stores a 32-byte word at (ptr, sub). A nil value writes the zero
// word.
func (m *Manager) SetWord(ptr Pointer, sub []byte, value *uint256.Int) error {
	word := value
	if word == nil {
		word = uint256.NewInt(0)
	}
	buf := word.Bytes32()
	return m.db.Put(slotKey(ptr, sub), buf[:])
}

// U64 reads a word expected to fit an unsigned 64-bit counter.
func (m *Manager) U64(ptr Pointer, sub []byte) (uint64, error) {
	word, err := m.Word(ptr, sub)
	if err != nil {
		return 0, err
	}
	if !word.IsUint64() {
		return 0, fmt.Errorf("state: slot %d exceeds uint64 range", ptr)
	}
	return word.Uint64(), nil
}

// SetU64 stores an unsigned 64-bit value widened to a word.
func (m *Manager) SetU64(ptr Pointer, sub []byte, value uint64) error {
	return m.SetWord(ptr, sub, uint256.NewInt(value))
}

// Address reads a word holding an address in its low 20 bytes.
func (m *Manager) Address(ptr Pointer, sub []byte) (common.Address, error) {
	word, err := m.Word(ptr, sub)
	if err != nil {
		return common.Address{}, err
	}
	buf := word.Bytes32()
	return common.BytesToAddress(buf[WordSize-common.AddressLength:]), nil
}

// SetAddress stores an address right-aligned in a word.
func (m *Manager) SetAddress(ptr Pointer, sub []byte, addr common.Address) error {
	word := new(uint256.Int)
	word.SetBytes(addr.Bytes())
	return m.SetWord(ptr, sub, word)
}

// Bool reads a word as a flag: any non-zero word is true.
func (m *Manager) Bool(ptr Pointer, sub []byte) (bool, error) {
	word, err := m.Word(ptr, sub)
	if err != nil {
		return false, err
	}
	return !word.IsZero(), nil
}

// SetBool stores a flag as the word 1 or 0.
func (m *Manager) SetBool(ptr Pointer, sub []byte, value bool) error {
	word := uint256.NewInt(0)
	if value {
		word.SetOne()
	}
	return m.SetWord(ptr, sub, word)
}
