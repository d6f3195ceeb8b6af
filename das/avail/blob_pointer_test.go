package avail

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobPointerBinary(t *testing.T) {
	in := BlobPointer{
		Version:            BLOBPOINTER_VERSION1,
		BlockHeight:        0x01020304,
		ExtrinsicIndex:     7,
		ExtrinsicHash:      common.HexToHash("0xabcdef"),
		BlobDataKeccak265H: crypto.Keccak256Hash([]byte("blob")),
	}
	data, err := in.MarshalToBinary()
	require.NoError(t, err)
	require.Len(t, data, BlobPointerLength)
	assert.Equal(t, []byte{1, 1, 2, 3, 4, 0, 0, 0, 7}, data[:9])
	assert.Equal(t, in.ExtrinsicHash.Bytes(), data[9:41])

	var out BlobPointer
	require.NoError(t, out.UnmarshalFromBinary(data))
	assert.Equal(t, in, out)
}

func TestBlobPointerUnmarshalErrors(t *testing.T) {
	in := BlobPointer{Version: BLOBPOINTER_VERSION1}
	data, err := in.MarshalToBinary()
	require.NoError(t, err)

	var out BlobPointer
	assert.ErrorIs(t, out.UnmarshalFromBinary(data[:len(data)-1]), ErrWrongAvailDAPointer)
	assert.ErrorIs(t, out.UnmarshalFromBinary(append(data, 0)), ErrWrongAvailDAPointer)

	data[0] = 2
	assert.ErrorIs(t, out.UnmarshalFromBinary(data), ErrWrongAvailDAPointer)
}
