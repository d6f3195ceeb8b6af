package avail

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"
)

type LocalFileStorageConfig struct {
	Enable  bool   `koanf:"enable"`
	DataDir string `koanf:"data-dir"`
}

var DefaultLocalFileStorageConfig = LocalFileStorageConfig{
	DataDir: "",
}

func LocalFileStorageConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultLocalFileStorageConfig.Enable, "keep a copy of every submitted blob in a directory of files, one per blob")
	f.String(prefix+".data-dir", DefaultLocalFileStorageConfig.DataDir, "local data directory")
}

var ErrNotFound = errors.New("not found")

// LocalFileStorageService keeps one file per blob, named by the hex key.
type LocalFileStorageService struct {
	dataDir string
}

func NewLocalFileStorageService(dataDir string) (*LocalFileStorageService, error) {
	if dataDir == "" {
		return nil, errors.New("local file storage data directory cannot be blank")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}
	return &LocalFileStorageService{dataDir: dataDir}, nil
}

func EncodeStorageServiceKey(key common.Hash) string {
	return key.Hex()[2:]
}

func (s *LocalFileStorageService) GetByHash(ctx context.Context, key common.Hash) ([]byte, error) {
	log.Trace("das.LocalFileStorageService.GetByHash", "key", key.Hex(), "this", s)
	data, err := os.ReadFile(filepath.Join(s.dataDir, EncodeStorageServiceKey(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *LocalFileStorageService) Put(ctx context.Context, key common.Hash, data []byte) error {
	log.Trace("das.LocalFileStorageService.Put", "key", key.Hex(), "this", s)
	fileName := EncodeStorageServiceKey(key)

	// Use a temp file and rename to achieve atomic writes.
	f, err := os.CreateTemp(s.dataDir, fileName)
	if err != nil {
		return err
	}
	if err = f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}

	if err = os.Rename(f.Name(), filepath.Join(s.dataDir, fileName)); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}

func (s *LocalFileStorageService) String() string {
	return "LocalFileStorageService(" + s.dataDir + ")"
}
