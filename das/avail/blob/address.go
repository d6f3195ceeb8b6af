package blob

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const AddressLength = 32

var ErrMalformedAddress = errors.New("malformed avail address")

// AvailAddress is the 32 byte account id of an extrinsic signer.
type AvailAddress [AddressLength]byte

func AddressFromBytes(b []byte) (AvailAddress, error) {
	var a AvailAddress
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedAddress, len(b), AddressLength)
	}
	copy(a[:], b)
	return a, nil
}

// ParseAvailAddress decodes the hex form produced by String. The 0x prefix is
// optional and the digits are case-insensitive, but the value must be exactly
// 32 bytes long.
func ParseAvailAddress(s string) (AvailAddress, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if len(s) != 2+2*AddressLength {
		return AvailAddress{}, fmt.Errorf("%w: %q has %d hex digits, want %d", ErrMalformedAddress, s, len(s)-2, 2*AddressLength)
	}
	b, err := hexutil.Decode("0x" + s[2:])
	if err != nil {
		return AvailAddress{}, fmt.Errorf("%w: %w", ErrMalformedAddress, err)
	}
	return AddressFromBytes(b)
}

func (a AvailAddress) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// String renders the address like a full length H256.
func (a AvailAddress) String() string {
	return common.Hash(a).Hex()
}

func (a AvailAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AvailAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseAvailAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
