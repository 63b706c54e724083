// Package compiler turns component layouts into rendering VM programs.
//
// This package contains:
//   - LayoutBuilder, which binds a wrapped or unwrapped strategy
//   - Tag and attribute builders for the wrapper element
//   - Statement wrapping for static and dynamic tags
//   - Scanning of names into frame slots
//   - Linking, including static and dynamic component invocation
package compiler
