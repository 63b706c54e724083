// Package wire defines the serialized form of a component template as it is
// delivered from storage: a typed tree of statements and expressions plus the
// metadata the compiler needs to build a symbol table.
//
// Templates travel as canonical CBOR (see codec.go). Statement and expression
// nodes are tagged structs rather than interfaces so they round-trip through
// the codec without custom marshalers.
package wire

// Meta carries template metadata. It is opaque to the compiler except for
// being handed to the environment when resolving components.
type Meta struct {
	ModuleName string `cbor:"1,keyasint,omitempty" json:"moduleName,omitempty"`
	Owner      string `cbor:"2,keyasint,omitempty" json:"owner,omitempty"`
}

// SerializedTemplate is a component's template as received by the compiler.
type SerializedTemplate struct {
	Meta  Meta  `cbor:"1,keyasint" json:"meta"`
	Block Block `cbor:"2,keyasint" json:"block"`
}

// Block is an ordered statement list with its scope information.
//
// Prelude and Head are only meaningful on a layout's top-level block: the
// prelude runs before the root element, the head holds the attribute
// statements that belong to the root element.
type Block struct {
	Statements  []Statement `cbor:"1,keyasint" json:"statements"`
	Params      []string    `cbor:"2,keyasint,omitempty" json:"params,omitempty"`
	Named       []string    `cbor:"3,keyasint,omitempty" json:"named,omitempty"`
	Yields      []string    `cbor:"4,keyasint,omitempty" json:"yields,omitempty"`
	HasPartials bool        `cbor:"5,keyasint,omitempty" json:"hasPartials,omitempty"`
	Prelude     []Statement `cbor:"6,keyasint,omitempty" json:"prelude,omitempty"`
	Head        []Statement `cbor:"7,keyasint,omitempty" json:"head,omitempty"`

	// Slots holds the frame slots scanning assigned to Params.
	Slots []int `cbor:"-" json:"-"`
}

// StatementKind identifies the shape of a Statement.
type StatementKind uint8

const (
	StmtText StatementKind = iota + 1
	StmtComment
	StmtAppend
	StmtOpenElement
	StmtOpenDynamicElement
	StmtStaticAttr
	StmtDynamicAttr
	StmtFlushElement
	StmtCloseElement
	StmtLet
	StmtBlock
	StmtYield
	StmtComponent
	StmtDynamicComponent
	StmtClientSide
	StmtPartial
	StmtModifier
)

var statementNames = map[StatementKind]string{
	StmtText:               "text",
	StmtComment:            "comment",
	StmtAppend:             "append",
	StmtOpenElement:        "open-element",
	StmtOpenDynamicElement: "open-dynamic-element",
	StmtStaticAttr:         "static-attr",
	StmtDynamicAttr:        "dynamic-attr",
	StmtFlushElement:       "flush-element",
	StmtCloseElement:       "close-element",
	StmtLet:                "let",
	StmtBlock:              "block",
	StmtYield:              "yield",
	StmtComponent:          "component",
	StmtDynamicComponent:   "dynamic-component",
	StmtClientSide:         "client-side-statement",
	StmtPartial:            "partial",
	StmtModifier:           "modifier",
}

func (k StatementKind) String() string {
	if name, ok := statementNames[k]; ok {
		return name
	}
	return "unknown-statement"
}

// Statement is a single template statement. Which fields are meaningful
// depends on Kind:
//
//	Text, Comment          Value
//	Append                 Expr, Trusted
//	OpenElement            Name
//	OpenDynamicElement     Expr
//	StaticAttr             Name, Value, Namespace
//	DynamicAttr            Name, Expr, Namespace, Trusted
//	Let                    Name, Expr
//	Block                  Expr (condition), Default, Inverse
//	Yield                  Name, Params
//	Component              Name, Params, Hash, Default, Inverse
//	DynamicComponent       Params (definition args), Hash, Default, Inverse, Name (resolver helper, optional)
//	ClientSide             Name, Params
//	Partial                Expr (partial name)
//	Modifier               Name, Params, Hash
//
// Slot is assigned by scanning: the local written by Let, the block symbol
// read by Yield. Scanning also fills Locals and LocalSlots for a Partial
// with every local visible at that point.
type Statement struct {
	Kind      StatementKind `cbor:"1,keyasint" json:"kind"`
	Name      string        `cbor:"2,keyasint,omitempty" json:"name,omitempty"`
	Value     string        `cbor:"3,keyasint,omitempty" json:"value,omitempty"`
	Namespace string        `cbor:"4,keyasint,omitempty" json:"namespace,omitempty"`
	Trusted   bool          `cbor:"5,keyasint,omitempty" json:"trusted,omitempty"`
	Expr      *Expression   `cbor:"6,keyasint,omitempty" json:"expr,omitempty"`
	Params    []Expression  `cbor:"7,keyasint,omitempty" json:"params,omitempty"`
	Hash      []HashPair    `cbor:"8,keyasint,omitempty" json:"hash,omitempty"`
	Default   *Block        `cbor:"9,keyasint,omitempty" json:"default,omitempty"`
	Inverse   *Block        `cbor:"10,keyasint,omitempty" json:"inverse,omitempty"`
	Slot      int           `cbor:"-" json:"-"`

	Locals     []string `cbor:"-" json:"-"`
	LocalSlots []int    `cbor:"-" json:"-"`
}

// HashPair is one named argument.
type HashPair struct {
	Key   string     `cbor:"1,keyasint" json:"key"`
	Value Expression `cbor:"2,keyasint" json:"value"`
}

// ExpressionKind identifies the shape of an Expression.
type ExpressionKind uint8

const (
	ExprLiteral ExpressionKind = iota + 1
	ExprGet
	ExprHelper
	ExprConcat
	ExprHasBlock
	ExprClientSide
)

var expressionNames = map[ExpressionKind]string{
	ExprLiteral:    "literal",
	ExprGet:        "get",
	ExprHelper:     "helper",
	ExprConcat:     "concat",
	ExprHasBlock:   "has-block",
	ExprClientSide: "client-side-expression",
}

func (k ExpressionKind) String() string {
	if name, ok := expressionNames[k]; ok {
		return name
	}
	return "unknown-expression"
}

// Expression is a value-producing node.
//
//	Literal     Value
//	Get         Name (head: "this", "@arg" or a local), Path (property tail)
//	Helper      Name, Params, Hash
//	Concat      Params
//	HasBlock    Name (block name without the leading '&')
//	ClientSide  Name, Params
//
// Slot is assigned by scanning for Get and HasBlock and is never serialized.
type Expression struct {
	Kind   ExpressionKind `cbor:"1,keyasint" json:"kind"`
	Name   string         `cbor:"2,keyasint,omitempty" json:"name,omitempty"`
	Path   []string       `cbor:"3,keyasint,omitempty" json:"path,omitempty"`
	Value  any            `cbor:"4,keyasint,omitempty" json:"value,omitempty"`
	Params []Expression   `cbor:"5,keyasint,omitempty" json:"params,omitempty"`
	Hash   []HashPair     `cbor:"6,keyasint,omitempty" json:"hash,omitempty"`
	Slot   int            `cbor:"-" json:"-"`
}
