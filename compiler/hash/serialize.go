package hash

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/layoutc/vm"
	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a compiled program.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Integers: big-endian fixed-width (int64=8B, uint32=4B)
//   - Floats: IEEE 754 big-endian 8B
//   - Strings and byte runs: uint32 big-endian length + bytes
//   - Booleans: single byte (0/1)
//   - Sections: tag byte followed by the section body, in fixed order
// ---------------------------------------------------------------------------

var canonical cbor.EncMode

func init() {
	var err error
	canonical, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("hash: cbor enc mode: %v", err))
	}
}

// Serialize produces a deterministic byte serialization of p. The returned
// bytes are suitable for hashing with SHA-256.
func Serialize(p *vm.CompiledProgram) ([]byte, error) {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	s.writeByte(TagProgram)

	s.writeByte(TagCode)
	s.writeBytes(p.Code)

	s.writeByte(TagLiterals)
	s.writeUint32(uint32(len(p.Literals)))
	for i, lit := range p.Literals {
		if err := s.serializeLiteral(lit); err != nil {
			return nil, fmt.Errorf("hash: literal %d: %w", i, err)
		}
	}

	s.writeUint32(uint32(len(p.Blocks)))
	for _, blk := range p.Blocks {
		s.writeByte(TagBlock)
		s.writeBytes(blk.Code)
		s.writeUint32(uint32(len(blk.ParamSlots)))
		for _, slot := range blk.ParamSlots {
			s.writeInt(slot)
		}
	}

	s.writeByte(TagSymbols)
	s.writeUint32(uint32(len(p.Symbols)))
	for _, sym := range p.Symbols {
		s.writeString(sym)
	}

	s.writeByte(TagFrame)
	s.writeInt(p.LocalCount)

	s.writeByte(TagPartials)
	s.writeBool(p.HasPartials)
	return s.buf, nil
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeFloat64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) writeBytes(v []byte) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) writeInt(v int) {
	s.writeInt64(int64(v))
}

func (s *serializer) serializeLiteral(lit any) error {
	switch v := lit.(type) {
	case nil:
		s.writeByte(TagNilLiteral)

	case string:
		s.writeByte(TagStringLiteral)
		s.writeString(v)

	case []string:
		s.writeByte(TagNamesLiteral)
		s.writeUint32(uint32(len(v)))
		for _, name := range v {
			s.writeString(name)
		}

	case vm.DefinitionRef:
		s.writeByte(TagDefinition)
		s.writeString(v.Name)
		s.writeUint32(v.Handle)

	case bool:
		s.writeByte(TagBoolLiteral)
		s.writeBool(v)

	case int:
		s.writeByte(TagIntLiteral)
		s.writeInt64(int64(v))

	case int64:
		s.writeByte(TagIntLiteral)
		s.writeInt64(v)

	case uint64:
		if v > math.MaxInt64 {
			return s.serializeCBOR(v)
		}
		s.writeByte(TagIntLiteral)
		s.writeInt64(int64(v))

	case float64:
		// JSON decodes every number as float64; integral values hash like
		// the ints a CBOR or Go-built template would carry.
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			s.writeByte(TagIntLiteral)
			s.writeInt64(int64(v))
			return nil
		}
		s.writeByte(TagFloatLiteral)
		s.writeFloat64(v)

	default:
		return s.serializeCBOR(v)
	}
	return nil
}

func (s *serializer) serializeCBOR(v any) error {
	data, err := canonical.Marshal(v)
	if err != nil {
		return err
	}
	s.writeByte(TagCBORLiteral)
	s.writeBytes(data)
	return nil
}
