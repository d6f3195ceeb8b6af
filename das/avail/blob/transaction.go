package blob

import (
	"errors"
	"fmt"

	gsrpc_types "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

const SubmitDataCall = "DataAvailability.submit_data"

var (
	ErrUnsignedExtrinsic = errors.New("unsigned extrinsic being used to create AvailBlobTransaction")
	ErrUnexpectedCall    = errors.New("invalid type of extrinsic being converted to AvailBlobTransaction")
)

// SubmitDataCallIndex resolves the index of DataAvailability.submit_data in
// the given runtime metadata.
func SubmitDataCallIndex(meta *gsrpc_types.Metadata) (gsrpc_types.CallIndex, error) {
	return meta.FindCallIndex(SubmitDataCall)
}

// AvailBlobTransaction is a signed submit_data extrinsic whose blob can only
// be read through a CountedBufReader.
type AvailBlobTransaction struct {
	blob    *CountedBufReader
	hash    [32]byte
	address AvailAddress
}

// NewAvailBlobTransaction validates ext and wraps its data. The hash is taken
// over the SCALE encoding of the whole extrinsic, so it matches the extrinsic
// hash reported by the chain.
func NewAvailBlobTransaction(ext *gsrpc_types.Extrinsic, submitData gsrpc_types.CallIndex) (*AvailBlobTransaction, error) {
	// TODO: handle the other MultiAddress variants (index, raw, address32, address20).
	if !ext.IsSigned() || !ext.Signature.Signer.IsID {
		return nil, ErrUnsignedExtrinsic
	}
	address := AvailAddress(ext.Signature.Signer.AsID)

	if ext.Method.CallIndex != submitData {
		return nil, fmt.Errorf("%w: call index %d.%d", ErrUnexpectedCall, ext.Method.CallIndex.SectionIndex, ext.Method.CallIndex.MethodIndex)
	}
	data, err := decodeSubmitDataArgs(ext.Method.Args)
	if err != nil {
		return nil, err
	}

	encoded, err := codec.Encode(ext)
	if err != nil {
		return nil, fmt.Errorf("cannot encode extrinsic: %w", err)
	}

	return &AvailBlobTransaction{
		blob:    NewCountedBufReader(data),
		hash:    Blake2b256(encoded),
		address: address,
	}, nil
}

// submit_data takes a single Vec<u8>; anything left over means the call is
// not what its index claims.
func decodeSubmitDataArgs(args gsrpc_types.Args) ([]byte, error) {
	var data gsrpc_types.Bytes
	if err := codec.Decode(args, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedCall, err)
	}
	reencoded, err := codec.Encode(data)
	if err != nil || len(reencoded) != len(args) {
		return nil, fmt.Errorf("%w: trailing call arguments", ErrUnexpectedCall)
	}
	return data, nil
}

func (t *AvailBlobTransaction) Hash() [32]byte {
	return t.hash
}

func (t *AvailBlobTransaction) Address() AvailAddress {
	return t.address
}

// Blob gives access to the counted reader; the raw data is never returned.
func (t *AvailBlobTransaction) Blob() *CountedBufReader {
	return t.blob
}

// CombineHash returns blake2b_256(hash || t.Hash()). The order is part of the
// commitment format.
func (t *AvailBlobTransaction) CombineHash(hash [32]byte) [32]byte {
	combined := make([]byte, 0, 64)
	combined = append(combined, hash[:]...)
	combined = append(combined, t.hash[:]...)
	return Blake2b256(combined)
}

// ChainHashes folds txs into prior with CombineHash, in slice order. Callers
// are responsible for passing transactions in the order they were included.
func ChainHashes(prior [32]byte, txs ...*AvailBlobTransaction) [32]byte {
	for _, tx := range txs {
		prior = tx.CombineHash(prior)
	}
	return prior
}
