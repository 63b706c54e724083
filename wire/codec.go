package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode so that equal templates encode to equal
// bytes.
var cborEncMode cbor.EncMode

// cborDecMode rejects duplicate map keys; a template with two values for the
// same field is malformed rather than last-one-wins.
var cborDecMode cbor.DecMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// Format names an on-disk template encoding.
type Format int

const (
	FormatCBOR Format = iota
	FormatJSON
)

// FormatForPath picks an encoding from a file extension. Anything that is
// not .json is treated as CBOR.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatCBOR
}

// MarshalTemplate serializes a template to canonical CBOR bytes.
func MarshalTemplate(t *SerializedTemplate) ([]byte, error) {
	return cborEncMode.Marshal(t)
}

// UnmarshalTemplate deserializes a template from CBOR bytes.
func UnmarshalTemplate(data []byte) (*SerializedTemplate, error) {
	var t SerializedTemplate
	if err := cborDecMode.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("wire: unmarshal template: %w", err)
	}
	return &t, nil
}

// MarshalTemplateJSON serializes a template to indented JSON, mainly for
// fixtures and debugging output.
func MarshalTemplateJSON(t *SerializedTemplate) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// UnmarshalTemplateJSON deserializes a template from JSON. Unknown fields
// are rejected.
func UnmarshalTemplateJSON(data []byte) (*SerializedTemplate, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var t SerializedTemplate
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("wire: unmarshal template json: %w", err)
	}
	return &t, nil
}

// Decode deserializes a template in the given format.
func Decode(data []byte, format Format) (*SerializedTemplate, error) {
	switch format {
	case FormatJSON:
		return UnmarshalTemplateJSON(data)
	default:
		return UnmarshalTemplate(data)
	}
}

// MarshalText lets JSON fixtures spell statement kinds by name.
func (k StatementKind) MarshalText() ([]byte, error) {
	if name, ok := statementNames[k]; ok {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("wire: unknown statement kind %d", k)
}

func (k *StatementKind) UnmarshalText(text []byte) error {
	for kind, name := range statementNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("wire: unknown statement kind %q", text)
}

func (k ExpressionKind) MarshalText() ([]byte, error) {
	if name, ok := expressionNames[k]; ok {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("wire: unknown expression kind %d", k)
}

func (k *ExpressionKind) UnmarshalText(text []byte) error {
	for kind, name := range expressionNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("wire: unknown expression kind %q", text)
}
