package avail

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	BLOBPOINTER_VERSION1 uint8 = 1
	BlobPointerLength          = 1 + 4 + 4 + common.HashLength + common.HashLength
)

// BlobPointer contains the reference to a submit_data extrinsic on Avail
type BlobPointer struct {
	Version            uint8
	BlockHeight        uint32
	ExtrinsicIndex     uint32
	ExtrinsicHash      common.Hash
	BlobDataKeccak265H common.Hash
}

func (b *BlobPointer) String() string {
	return fmt.Sprintf("BlobPointer{Version: %d, BlockHeight: %d, ExtrinsicIndex: %d, ExtrinsicHash: %s, BlobDataKeccak265H: %s}",
		b.Version, b.BlockHeight, b.ExtrinsicIndex, b.ExtrinsicHash.Hex(), b.BlobDataKeccak265H.Hex())
}

// MarshalToBinary encodes the BlobPointer to binary
// serialization format: version + height + index + extrinsic hash + data hash
//
//	----------------------------------------------------------------------------------------------
//
// | 1 byte uint8 | 4 byte uint32 | 4 byte uint32 |  32 byte extrinsic hash | 32 byte keccak256 |
//
//	----------------------------------------------------------------------------------------------
//
// | <-version->  | <- height ->  | <- index ->   | <-- extrinsic hash -->  | <-- data hash --> |
//
//	----------------------------------------------------------------------------------------------
func (b *BlobPointer) MarshalToBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, field := range []any{b.Version, b.BlockHeight, b.ExtrinsicIndex, b.ExtrinsicHash, b.BlobDataKeccak265H} {
		if err := binary.Write(buf, binary.BigEndian, field); err != nil {
			return nil, fmt.Errorf("unable to convert the blob pointer into array of bytes and getting error:%w", err)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalFromBinary decodes the output of MarshalToBinary.
func (b *BlobPointer) UnmarshalFromBinary(data []byte) error {
	if len(data) != BlobPointerLength {
		return fmt.Errorf("%w: blob pointer is %d bytes, want %d", ErrWrongAvailDAPointer, len(data), BlobPointerLength)
	}
	if data[0] != BLOBPOINTER_VERSION1 {
		return fmt.Errorf("%w: unsupported blob pointer version %d", ErrWrongAvailDAPointer, data[0])
	}
	r := bytes.NewReader(data)
	for _, field := range []any{&b.Version, &b.BlockHeight, &b.ExtrinsicIndex, &b.ExtrinsicHash, &b.BlobDataKeccak265H} {
		if err := binary.Read(r, binary.BigEndian, field); err != nil {
			return fmt.Errorf("unable to decode the blob pointer and getting error:%w", err)
		}
	}
	return nil
}
