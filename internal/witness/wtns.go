// Package witness implements the .wtns binary witness format and the
// calculator bridge that produces it: the witness calculator is an
// opaque per-circuit WASM artifact run through go-rapidsnark, so this
// package only owns the wire format and the call into that library,
// not any circuit logic. There is no native C ABI binding and no
// retry-on-undersized-buffer loop here; output buffer sizing is left
// to the library.
package witness

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"heimdall/internal/field"
)

var magic = [4]byte{'w', 't', 'n', 's'}

const (
	sectionHeader = uint32(1)
	sectionBody   = uint32(2)
)

// Witness is the decoded contents of a .wtns file: the field the
// constraint system runs over, and one field element per wire
// assignment (witness[0] is always 1).
type Witness struct {
	Version          uint32
	FieldElementSize uint32
	FieldPrime       *big.Int
	NumConstraints   uint32
	Assignment       []*big.Int
}

// Parse decodes a .wtns file: a 4-byte magic, a version, a section
// count, then that many (type, length, bytes) sections. Section 1 is
// the header (field element size, field prime, constraint count);
// section 2 is the body (one field-element-sized little-endian entry
// per constraint).
func Parse(buf []byte) (*Witness, error) {
	r := bytes.NewReader(buf)

	var got [4]byte
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return nil, fmt.Errorf("witness: reading magic: %w", err)
	}
	if got != magic {
		return nil, fmt.Errorf("witness: bad magic %q", got)
	}

	w := &Witness{}
	if err := binary.Read(r, binary.LittleEndian, &w.Version); err != nil {
		return nil, fmt.Errorf("witness: reading version: %w", err)
	}

	var nSections uint32
	if err := binary.Read(r, binary.LittleEndian, &nSections); err != nil {
		return nil, fmt.Errorf("witness: reading section count: %w", err)
	}

	for s := uint32(0); s < nSections; s++ {
		var sType uint32
		var sLen uint64
		if err := binary.Read(r, binary.LittleEndian, &sType); err != nil {
			return nil, fmt.Errorf("witness: reading section %d type: %w", s, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &sLen); err != nil {
			return nil, fmt.Errorf("witness: reading section %d length: %w", s, err)
		}
		body := make([]byte, sLen)
		if _, err := r.Read(body); err != nil {
			return nil, fmt.Errorf("witness: reading section %d body: %w", s, err)
		}

		switch sType {
		case sectionHeader:
			if err := w.parseHeader(body); err != nil {
				return nil, err
			}
		case sectionBody:
			if err := w.parseBody(body); err != nil {
				return nil, err
			}
		}
	}

	return w, nil
}

func (w *Witness) parseHeader(body []byte) error {
	if len(body) < 4 {
		return fmt.Errorf("witness: header section too short")
	}
	w.FieldElementSize = binary.LittleEndian.Uint32(body[0:4])
	off := 4 + int(w.FieldElementSize)
	if len(body) < off+4 {
		return fmt.Errorf("witness: header section missing constraint count")
	}
	primeBytes := body[4:off]
	w.FieldPrime = leBytesToInt(primeBytes)
	w.NumConstraints = binary.LittleEndian.Uint32(body[off : off+4])
	return nil
}

func (w *Witness) parseBody(body []byte) error {
	sz := int(w.FieldElementSize)
	if sz == 0 {
		sz = field.Size
	}
	n := len(body) / sz
	w.Assignment = make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		w.Assignment = append(w.Assignment, leBytesToInt(body[i*sz:(i+1)*sz]))
	}
	return nil
}

// Encode serializes w back into the .wtns binary format.
func (w *Witness) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	binary.Write(&buf, binary.LittleEndian, w.Version)
	binary.Write(&buf, binary.LittleEndian, uint32(2))

	sz := w.FieldElementSize
	if sz == 0 {
		sz = field.Size
	}
	prime := w.FieldPrime
	if prime == nil {
		prime = field.Modulus()
	}
	primeBytes := intToLEBytes(prime, int(sz))

	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, sz)
	header.Write(primeBytes)
	binary.Write(&header, binary.LittleEndian, uint32(len(w.Assignment)))

	binary.Write(&buf, binary.LittleEndian, sectionHeader)
	binary.Write(&buf, binary.LittleEndian, uint64(header.Len()))
	buf.Write(header.Bytes())

	var body bytes.Buffer
	for _, a := range w.Assignment {
		body.Write(intToLEBytes(a, int(sz)))
	}
	binary.Write(&buf, binary.LittleEndian, sectionBody)
	binary.Write(&buf, binary.LittleEndian, uint64(body.Len()))
	buf.Write(body.Bytes())

	return buf.Bytes(), nil
}

func leBytesToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

func intToLEBytes(x *big.Int, size int) []byte {
	be := x.Bytes()
	out := make([]byte, size)
	for i := 0; i < len(be) && i < size; i++ {
		out[i] = be[len(be)-1-i]
	}
	return out
}
