package zk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrMalformedProof = errors.New("malformed proof file")

type Proof struct {
	PublicValues []byte
	Proof        []byte
}

// MarshalBinary layout:
//
//	| 4 byte uint32 | public values | 4 byte uint32 | proof bytes |
func (p *Proof) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, part := range [][]byte{p.PublicValues, p.Proof} {
		if err := binary.Write(buf, binary.BigEndian, uint32(len(part))); err != nil {
			return nil, err
		}
		buf.Write(part)
	}
	return buf.Bytes(), nil
}

func (p *Proof) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	parts := make([][]byte, 2)
	for i := range parts {
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedProof, err)
		}
		if int64(n) > int64(r.Len()) {
			return fmt.Errorf("%w: section of %d bytes with %d left", ErrMalformedProof, n, r.Len())
		}
		parts[i] = make([]byte, n)
		if _, err := io.ReadFull(r, parts[i]); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedProof, err)
		}
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedProof, r.Len())
	}
	p.PublicValues, p.Proof = parts[0], parts[1]
	return nil
}

// SaveProof writes the proof atomically.
func SaveProof(path string, p *Proof) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path))
	if err != nil {
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
	return os.Rename(f.Name(), path)
}

func LoadProof(path string) (*Proof, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Proof
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &p, nil
}
