package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the program fingerprint serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously computed fingerprints.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing fingerprints.
const HashVersion byte = 1

const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Literal pool entries
	TagStringLiteral byte = 0x01
	TagNamesLiteral  byte = 0x02 // argument name list
	TagDefinition    byte = 0x03 // component definition handle
	TagIntLiteral    byte = 0x04
	TagFloatLiteral  byte = 0x05
	TagBoolLiteral   byte = 0x06
	TagNilLiteral    byte = 0x07
	TagCBORLiteral   byte = 0x08 // anything else, as canonical CBOR

	// Program structure
	TagProgram  byte = 0x10
	TagCode     byte = 0x11
	TagLiterals byte = 0x12
	TagBlock    byte = 0x13
	TagSymbols  byte = 0x14
	TagFrame    byte = 0x15
	TagPartials byte = 0x16

	// Reserved 0xFE-0xFF
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagStringLiteral, TagNamesLiteral, TagDefinition, TagIntLiteral,
	TagFloatLiteral, TagBoolLiteral, TagNilLiteral, TagCBORLiteral,
	TagProgram, TagCode, TagLiterals, TagBlock,
	TagSymbols, TagFrame, TagPartials,
}
