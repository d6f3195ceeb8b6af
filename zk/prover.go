// Package zk describes the proving service that consumes blob data and the
// input stream handed to it.
package zk

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/0xkanekiken/zk-option-pricer/das/avail/blob"
)

type ProvingKey []byte
type VerifyingKey []byte

// Prover is implemented by the zkVM client. Proof generation is opaque here.
type Prover interface {
	Setup(programImage []byte) (ProvingKey, VerifyingKey, error)
	Prove(ctx context.Context, pk ProvingKey, stdin *Stdin) (*Proof, error)
	Verify(proof *Proof, vk VerifyingKey) error
}

// Stdin is the ordered input stream of a proof.
type Stdin struct {
	buffer [][]byte
}

func NewStdin() *Stdin {
	return &Stdin{}
}

func (s *Stdin) Write(data []byte) {
	s.buffer = append(s.buffer, append([]byte(nil), data...))
}

// WriteConsumed advances the blob of tx by n bytes and writes exactly the
// bytes that moved. It returns how many that was.
func (s *Stdin) WriteConsumed(tx *blob.AvailBlobTransaction, n int) int {
	before := tx.Blob().Consumed()
	tx.Blob().Advance(n)
	read := tx.Blob().Accumulator()[before:]
	s.Write(read)
	return len(read)
}

func (s *Stdin) WriteCommitment(commitment [32]byte) {
	s.Write(commitment[:])
}

func (s *Stdin) Buffer() [][]byte {
	out := make([][]byte, len(s.buffer))
	for i, b := range s.buffer {
		out[i] = append([]byte(nil), b...)
	}
	return out
}

// BlobRead asks for the next N bytes of Tx.
type BlobRead struct {
	Tx *blob.AvailBlobTransaction
	N  int
}

// ProveBlobReads feeds the requested prefix of every blob to the prover,
// followed by the chain of the transactions' hashes starting at prior. A
// transaction is chained when it is first read, so the order of first reads
// must follow inclusion order. Later reads of the same blob only add bytes.
func ProveBlobReads(ctx context.Context, p Prover, pk ProvingKey, prior [32]byte, reads []BlobRead) (*Proof, [32]byte, error) {
	stdin := NewStdin()
	commitment := prior
	chained := make(map[*blob.AvailBlobTransaction]struct{}, len(reads))
	for i, r := range reads {
		if r.Tx == nil {
			return nil, [32]byte{}, fmt.Errorf("blob read %d has no transaction", i)
		}
		n := stdin.WriteConsumed(r.Tx, r.N)
		if _, ok := chained[r.Tx]; !ok {
			chained[r.Tx] = struct{}{}
			commitment = r.Tx.CombineHash(commitment)
		}
		log.Debug("zk: blob consumed", "tx", common.Hash(r.Tx.Hash()).Hex(), "requested", r.N, "read", n, "sender", r.Tx.Address())
	}
	stdin.WriteCommitment(commitment)

	proof, err := p.Prove(ctx, pk, stdin)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("proving failed: %w", err)
	}
	log.Info("zk: proof generated", "reads", len(reads), "commitment", common.Hash(commitment).Hex())
	return proof, commitment, nil
}
