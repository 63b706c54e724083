package vm

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// TagDefinitionRef is the CBOR tag number that marks a DefinitionRef in the
// literal pool, so it decodes back into a DefinitionRef rather than a map.
const TagDefinitionRef = 61000

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	tags := cbor.NewTagSet()
	err := tags.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(DefinitionRef{}),
		TagDefinitionRef,
	)
	if err != nil {
		panic(fmt.Sprintf("vm: failed to register CBOR tags: %v", err))
	}

	em, err := cbor.CanonicalEncOptions().EncModeWithTags(tags)
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{}.DecModeWithTags(tags)
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// MarshalProgram serializes a CompiledProgram to canonical CBOR bytes.
func MarshalProgram(p *CompiledProgram) ([]byte, error) {
	return cborEncMode.Marshal(p)
}

// UnmarshalProgram deserializes a CompiledProgram from CBOR bytes. Name lists
// in the literal pool come back as []any; definitions keep their type.
func UnmarshalProgram(data []byte) (*CompiledProgram, error) {
	var p CompiledProgram
	if err := cborDecMode.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("vm: unmarshal program: %w", err)
	}
	return &p, nil
}
