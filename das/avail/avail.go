package avail

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/rpc/author"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	gsrpc_types "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/0xkanekiken/zk-option-pricer/das/avail/blob"
)

const (
	readRetries   = 3
	submitRetries = 3
)

var (
	ErrAvailDAClientInit          = errors.New("unable to initialize to connect with AvailDA")
	ErrBatchSubmitToAvailDAFailed = errors.New("unable to submit blob to AvailDA")
	ErrWrongAvailDAPointer        = errors.New("unable to retrieve blob, wrong blobPointer")
)

type AvailDA struct {
	// Config
	finalizationTimeout time.Duration
	appID               int

	// Client
	api            *gsrpc.SubstrateAPI
	meta           *gsrpc_types.Metadata
	genesisHash    gsrpc_types.Hash
	rv             *gsrpc_types.RuntimeVersion
	keyringPair    signature.KeyringPair
	key            gsrpc_types.StorageKey
	submitDataCall gsrpc_types.CallIndex

	blocks *lru.Cache[uint32, *gsrpc_types.SignedBlock]

	// Fallback
	fallback *LocalFileStorageService
}

func NewAvailDA(cfg DAConfig) (*AvailDA, error) {
	// Creating new substrate api
	api, err := gsrpc.NewSubstrateAPI(cfg.AvailApiURL)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: %w. %w", err, ErrAvailDAClientInit)
	}

	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot get metadata, %w. %w", err, ErrAvailDAClientInit)
	}

	genesisHash, err := api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot get block hash, %w. %w", err, ErrAvailDAClientInit)
	}

	rv, err := api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot get runtime version, %w. %w", err, ErrAvailDAClientInit)
	}

	keyringPair, err := signature.KeyringPairFromSecret(cfg.Seed, 42)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot create keyPair, %w. %w", err, ErrAvailDAClientInit)
	}

	key, err := gsrpc_types.CreateStorageKey(meta, "System", "Account", keyringPair.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot create storage key, %w. %w", err, ErrAvailDAClientInit)
	}

	submitDataCall, err := blob.SubmitDataCallIndex(meta)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot find %s in metadata, %w. %w", blob.SubmitDataCall, err, ErrAvailDAClientInit)
	}

	cacheSize := cfg.BlockCacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultAvailDAConfig.BlockCacheSize
	}
	blocks, err := lru.New[uint32, *gsrpc_types.SignedBlock](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot create block cache, %w. %w", err, ErrAvailDAClientInit)
	}

	var fallback *LocalFileStorageService
	if cfg.Fallback.Enable {
		fallback, err = NewLocalFileStorageService(cfg.Fallback.DataDir)
		if err != nil {
			return nil, fmt.Errorf("AvailDAError: unable to intialize local storage service for fallback, %w. %w", err, ErrAvailDAClientInit)
		}
	}

	return &AvailDA{
		finalizationTimeout: cfg.Timeout,
		appID:               cfg.AppID,
		api:                 api,
		meta:                meta,
		genesisHash:         genesisHash,
		rv:                  rv,
		keyringPair:         keyringPair,
		key:                 key,
		submitDataCall:      submitDataCall,
		blocks:              blocks,
		fallback:            fallback,
	}, nil
}

func (a *AvailDA) Store(ctx context.Context, message []byte) ([]byte, error) {
	finalizedBlockHash, extrinsicHash, err := a.submitData(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: cannot submit data to avail: %w, %w", err, ErrBatchSubmitToAvailDAFailed)
	}

	block, err := a.api.RPC.Chain.GetBlock(finalizedBlockHash)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: cannot get finalized block: %w", err)
	}
	blockHeight := uint32(block.Block.Header.Number)
	a.blocks.Add(blockHeight, block)

	extrinsicIndex, err := findExtrinsicIndex(block.Block.Extrinsics, extrinsicHash)
	if err != nil {
		return nil, err
	}
	log.Info("AvailDAInfo: 🏆  Data included in Avail's finalised block", "blockHash", finalizedBlockHash.Hex(), "extrinsicIndex", extrinsicIndex)

	blobPointer := BlobPointer{
		Version:            BLOBPOINTER_VERSION1,
		BlockHeight:        blockHeight,
		ExtrinsicIndex:     extrinsicIndex,
		ExtrinsicHash:      common.Hash(extrinsicHash),
		BlobDataKeccak265H: crypto.Keccak256Hash(message),
	}
	log.Info("AvailInfo: ✅  Sucesfully included in block data to Avail", "BlobPointer:", blobPointer.String())
	blobPointerData, err := blobPointer.MarshalToBinary()
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ BlobPointer MashalBinary error, %w", err)
	}

	if a.fallback != nil {
		if err := a.fallback.Put(ctx, blobPointer.BlobDataKeccak265H, message); err != nil {
			log.Error("AvailDAError: failed to put data on local storage service", "err", err)
		}
	}

	return blobPointerData, nil
}

// Read returns the full blob. It goes through the transaction's counted reader
// like any other consumer, reading all of it.
func (a *AvailDA) Read(ctx context.Context, blobPointer BlobPointer) ([]byte, error) {
	log.Info("AvailInfo: ℹ️ Requesting data from Avail", "BlobPointer", blobPointer.String())

	var data []byte
	for i := 0; i < readRetries; i++ {
		tx, err := a.ReadTransaction(ctx, blobPointer)
		if err == nil {
			tx.Blob().Advance(tx.Blob().TotalLen())
			data = tx.Blob().Accumulator()
			if crypto.Keccak256Hash(data) == blobPointer.BlobDataKeccak265H {
				log.Info("AvailInfo: ✅  Succesfully fetched data from Avail")
				return data, nil
			}
			err = fmt.Errorf("blob data hash mismatch: %w", ErrWrongAvailDAPointer)
		}
		if errors.Is(err, ErrWrongAvailDAPointer) || i == readRetries-1 {
			log.Info("AvailInfo: ❌  failed to fetch data from Avail", "err", err)
			break
		}
		sleepDuration := time.Duration(math.Pow(2, float64(i))) * time.Second
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepDuration):
		}
	}

	if a.fallback == nil {
		return nil, fmt.Errorf("AvailDAError: unable to read data from AvailDA & fallback storage is not enabled")
	}
	data, err := a.fallback.GetByHash(ctx, blobPointer.BlobDataKeccak265H)
	if err != nil {
		log.Info("AvailInfo: ❌  failed to read data from fallback storage", "err", err)
		return nil, fmt.Errorf("AvailDAError: unable to read data from AvailDA & fallback storage: %w", err)
	}
	if crypto.Keccak256Hash(data) != blobPointer.BlobDataKeccak265H {
		return nil, fmt.Errorf("AvailDAError: fallback data does not match blob pointer: %w", ErrWrongAvailDAPointer)
	}
	log.Info("AvailInfo: ✅  Succesfully fetched data from Avail using fallback storage")
	return data, nil
}

// ReadTransaction fetches the extrinsic referenced by blobPointer. Nothing of
// the blob has been read when it is returned.
func (a *AvailDA) ReadTransaction(ctx context.Context, blobPointer BlobPointer) (*blob.AvailBlobTransaction, error) {
	block, err := a.getBlock(ctx, blobPointer.BlockHeight)
	if err != nil {
		return nil, err
	}
	return transactionAt(block.Block.Extrinsics, blobPointer, a.submitDataCall)
}

// ReadBlockTransactions returns every submit_data extrinsic of the block at
// height, in the order they were included.
func (a *AvailDA) ReadBlockTransactions(ctx context.Context, height uint32) ([]*blob.AvailBlobTransaction, error) {
	block, err := a.getBlock(ctx, height)
	if err != nil {
		return nil, err
	}
	return blockTransactions(block.Block.Extrinsics, a.submitDataCall)
}

// CommitBlock folds the submit_data extrinsics of the block at height into
// prior. Chaining consecutive heights yields a commitment to the whole range.
func (a *AvailDA) CommitBlock(ctx context.Context, prior [32]byte, height uint32) ([32]byte, error) {
	txs, err := a.ReadBlockTransactions(ctx, height)
	if err != nil {
		return [32]byte{}, err
	}
	commitment := blob.ChainHashes(prior, txs...)
	log.Debug("AvailDAInfo: block committed", "height", height, "transactions", len(txs), "commitment", common.Hash(commitment).Hex())
	return commitment, nil
}

func (a *AvailDA) getBlock(ctx context.Context, height uint32) (*gsrpc_types.SignedBlock, error) {
	if block, ok := a.blocks.Get(height); ok {
		return block, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	latestHeader, err := a.api.RPC.Chain.GetHeaderLatest()
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: cannot get latest header, %w", err)
	}
	if latestHeader.Number < gsrpc_types.BlockNumber(height) {
		return nil, fmt.Errorf("AvailDAError: block %d is ahead of latest block %d: %w", height, latestHeader.Number, ErrWrongAvailDAPointer)
	}

	blockHash, err := a.api.RPC.Chain.GetBlockHash(uint64(height))
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ⚠️ cannot get block hash, %w", err)
	}

	block, err := a.api.RPC.Chain.GetBlock(blockHash)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: ❌ cannot get block for hash:%v and getting error:%w", blockHash.Hex(), err)
	}
	a.blocks.Add(height, block)
	return block, nil
}

func (a *AvailDA) submitData(ctx context.Context, message []byte) (gsrpc_types.Hash, [32]byte, error) {
	c, err := gsrpc_types.NewCall(a.meta, blob.SubmitDataCall, gsrpc_types.NewBytes(message))
	if err != nil {
		return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("⚠️ cannot create new call, %w", err)
	}

	// Create the extrinsic
	ext := gsrpc_types.NewExtrinsic(c)

	var accountInfo gsrpc_types.AccountInfo
	ok, err := a.api.RPC.State.GetStorageLatest(a.key, &accountInfo)
	if err != nil || !ok {
		return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("⚠️ cannot get latest storage, %w", err)
	}

	o := gsrpc_types.SignatureOptions{
		BlockHash:          a.genesisHash,
		Era:                gsrpc_types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        a.genesisHash,
		Nonce:              gsrpc_types.NewUCompactFromUInt(uint64(accountInfo.Nonce)),
		SpecVersion:        a.rv.SpecVersion,
		Tip:                gsrpc_types.NewUCompactFromUInt(0),
		AppID:              gsrpc_types.NewUCompactFromUInt(uint64(a.appID)), //nolint:gosec
		TransactionVersion: a.rv.TransactionVersion,
	}

	if err = ext.Sign(a.keyringPair, o); err != nil {
		return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("⚠️ cannot sign, %w", err)
	}

	// The same hash the chain and the prover derive for this extrinsic.
	encoded, err := codec.Encode(ext)
	if err != nil {
		return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("⚠️ cannot encode extrinsic, %w", err)
	}
	extrinsicHash := blob.Blake2b256(encoded)

	var sub *author.ExtrinsicStatusSubscription
	for i := 0; i < submitRetries; i++ {
		sub, err = a.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
		if websocket.IsUnexpectedCloseError(err, websocket.CloseAbnormalClosure) {
			log.Warn("AvailDAWarn: unexpected socket closure while submitting", "attempt", i+1, "limit", submitRetries, "err", err)
			continue
		}
		break
	}
	if err != nil {
		return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("⚠️ cannot submit extrinsic, %w", err)
	}
	defer sub.Unsubscribe()

	log.Info("AvailDAInfo: ✅  Blob is submitted to Avail", "length", len(message), "address", a.keyringPair.Address, "appID", a.appID, "extrinsicHash", common.Hash(extrinsicHash).Hex())

	ctx, cancel := context.WithTimeout(ctx, a.finalizationTimeout)
	defer cancel()

	for {
		select {
		case status := <-sub.Chan():
			if status.IsInBlock {
				log.Info("AvailDAInfo: 📥  Submit data extrinsic included in block", "blockHash", status.AsInBlock.Hex())
			} else if status.IsFinalized {
				log.Info("AvailDAInfo: 📥  Submit data extrinsic included in finalized block", "blockHash", status.AsFinalized.Hex())
				return status.AsFinalized, extrinsicHash, nil
			} else if status.IsRetracted {
				log.Warn("AvailDAWarn: ✂️  AvailDA transaction got retracted from block", "blockHash", status.AsRetracted.Hex())
			} else if status.IsInvalid || status.IsDropped {
				return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("❌ Extrinsic invalid or dropped")
			}
		case err := <-sub.Err():
			return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("❌ extrinsic watch failed, %w", err)
		case <-ctx.Done():
			return gsrpc_types.Hash{}, [32]byte{}, fmt.Errorf("⌛️  Timeout of %s reached without getting finalized status for extrinsic: %w", a.finalizationTimeout, ctx.Err())
		}
	}
}

// findExtrinsicIndex locates an extrinsic by its BLAKE2b-256 hash.
func findExtrinsicIndex(extrinsics []gsrpc_types.Extrinsic, extrinsicHash [32]byte) (uint32, error) {
	for i := range extrinsics {
		encoded, err := codec.Encode(extrinsics[i])
		if err != nil {
			return 0, fmt.Errorf("AvailDAError: cannot encode extrinsic %d, %w", i, err)
		}
		if blob.Blake2b256(encoded) == extrinsicHash {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("AvailDAError: extrinsic %s not found in block", common.Hash(extrinsicHash).Hex())
}

func transactionAt(extrinsics []gsrpc_types.Extrinsic, blobPointer BlobPointer, submitDataCall gsrpc_types.CallIndex) (*blob.AvailBlobTransaction, error) {
	if int(blobPointer.ExtrinsicIndex) >= len(extrinsics) {
		return nil, fmt.Errorf("AvailDAError: extrinsic index %d out of range, block has %d: %w", blobPointer.ExtrinsicIndex, len(extrinsics), ErrWrongAvailDAPointer)
	}
	tx, err := blob.NewAvailBlobTransaction(&extrinsics[blobPointer.ExtrinsicIndex], submitDataCall)
	if err != nil {
		return nil, fmt.Errorf("AvailDAError: %w: %w", err, ErrWrongAvailDAPointer)
	}
	if common.Hash(tx.Hash()) != blobPointer.ExtrinsicHash {
		return nil, fmt.Errorf("AvailDAError: extrinsic hash %s does not match %s: %w", common.Hash(tx.Hash()).Hex(), blobPointer.ExtrinsicHash.Hex(), ErrWrongAvailDAPointer)
	}
	return tx, nil
}

func blockTransactions(extrinsics []gsrpc_types.Extrinsic, submitDataCall gsrpc_types.CallIndex) ([]*blob.AvailBlobTransaction, error) {
	var txs []*blob.AvailBlobTransaction
	for i := range extrinsics {
		tx, err := blob.NewAvailBlobTransaction(&extrinsics[i], submitDataCall)
		if errors.Is(err, blob.ErrUnsignedExtrinsic) || errors.Is(err, blob.ErrUnexpectedCall) {
			// inherents and other pallets' calls
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("AvailDAError: extrinsic %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
