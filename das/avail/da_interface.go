package avail

import (
	"context"

	"github.com/0xkanekiken/zk-option-pricer/das/avail/blob"
)

var (
	_ DataAvailabilityWriter = (*AvailDA)(nil)
	_ DataAvailabilityReader = (*AvailDA)(nil)
)

type DataAvailabilityWriter interface {
	Store(context.Context, []byte) ([]byte, error)
}

type DataAvailabilityReader interface {
	Read(context.Context, BlobPointer) ([]byte, error)
	// ReadTransaction is the path for provers: the blob is only reachable
	// through the transaction's counted reader.
	ReadTransaction(context.Context, BlobPointer) (*blob.AvailBlobTransaction, error)
}
