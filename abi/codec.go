// Package abi maps the marketplace's public operations onto 4-byte method
// selectors with fixed-width binary argument and result layouts.
package abi

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const wordSize = 32

var (
	ErrUnknownMethod = errors.New("abi: unknown method")
	ErrBadCalldata   = errors.New("abi: malformed calldata")
)

// Selector returns the 4-byte keccak prefix of a canonical method signature.
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], ethcrypto.Keccak256([]byte(signature))[:4])
	return sel
}

// Reader consumes fixed-width 32-byte-word arguments from calldata.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) word() ([]byte, error) {
	if r.off+wordSize > len(r.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrBadCalldata, r.off)
	}
	out := r.data[r.off : r.off+wordSize]
	r.off += wordSize
	return out, nil
}

// Word reads one 32-byte argument.
func (r *Reader) Word() (*uint256.Int, error) {
	raw, err := r.word()
	if err != nil {
		return nil, err
	}
	value := new(uint256.Int)
	value.SetBytes(raw)
	return value, nil
}

// Address reads a word whose low 20 bytes are an address. High bytes must be
// zero.
func (r *Reader) Address() (common.Address, error) {
	raw, err := r.word()
	if err != nil {
		return common.Address{}, err
	}
	for _, b := range raw[:wordSize-common.AddressLength] {
		if b != 0 {
			return common.Address{}, fmt.Errorf("%w: dirty address word", ErrBadCalldata)
		}
	}
	return common.BytesToAddress(raw[wordSize-common.AddressLength:]), nil
}

// U64 reads a word that must fit an unsigned 64-bit id.
func (r *Reader) U64() (uint64, error) {
	value, err := r.Word()
	if err != nil {
		return 0, err
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("%w: id exceeds uint64", ErrBadCalldata)
	}
	return value.Uint64(), nil
}

// U32 reads a word that must fit an unsigned 32-bit rate.
func (r *Reader) U32() (uint32, error) {
	value, err := r.U64()
	if err != nil {
		return 0, err
	}
	if value > 1<<32-1 {
		return 0, fmt.Errorf("%w: rate exceeds uint32", ErrBadCalldata)
	}
	return uint32(value), nil
}

// Done fails if any argument bytes remain unconsumed.
func (r *Reader) Done() error {
	if r.off != len(r.data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadCalldata, len(r.data)-r.off)
	}
	return nil
}

// Writer builds fixed-width binary results.
type Writer struct {
	buf []byte
}

// Word appends one 32-byte value.
func (w *Writer) Word(value *uint256.Int) *Writer {
	var word [wordSize]byte
	if value != nil {
		word = value.Bytes32()
	}
	w.buf = append(w.buf, word[:]...)
	return w
}

// U64 appends an unsigned 64-bit value widened to a word.
func (w *Writer) U64(value uint64) *Writer {
	return w.Word(uint256.NewInt(value))
}

// Address appends an address right-aligned in a word.
func (w *Writer) Address(addr common.Address) *Writer {
	value := new(uint256.Int)
	value.SetBytes(addr.Bytes())
	return w.Word(value)
}

// BoolWord appends a flag widened to a word (read-model tuples).
func (w *Writer) BoolWord(value bool) *Writer {
	word := uint256.NewInt(0)
	if value {
		word.SetOne()
	}
	return w.Word(word)
}

// Bool appends a single-byte boolean (mutating-call results).
func (w *Writer) Bool(value bool) *Writer {
	b := byte(0)
	if value {
		b = 1
	}
	w.buf = append(w.buf, b)
	return w
}

// Bytes returns the accumulated result.
func (w *Writer) Bytes() []byte {
	return w.buf
}
