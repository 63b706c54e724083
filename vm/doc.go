// Package vm defines the bytecode that compiled layouts run on.
//
// This package contains:
//   - Opcode definitions and operand widths
//   - A bytecode builder with forward labels
//   - Decoding and disassembly
//   - CompiledProgram and its CBOR encoding
package vm
