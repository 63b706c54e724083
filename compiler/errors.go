package compiler

import "errors"

// Configuration errors: the caller misused the builder API.
var (
	ErrUnbound          = errors.New("layout builder has no strategy bound")
	ErrAlreadyBound     = errors.New("layout builder strategy already bound")
	ErrNoTag            = errors.New("unwrapped layout has no tag")
	ErrMissingTag       = errors.New("wrapped layout compiled without a tag")
	ErrNoDefinitionArgs = errors.New("dynamic component invocation needs at least one definition argument")
	ErrInvocationTarget = errors.New("component invocation needs exactly one of a definition or a dynamic recipe")
)

// Structural errors: the template itself is malformed.
var (
	ErrUnresolvedSymbol  = errors.New("unresolved symbol")
	ErrUnknownYield      = errors.New("yield to undeclared block")
	ErrNoRootElement     = errors.New("head attributes without a root element")
	ErrUnknownComponent  = errors.New("unknown component")
	ErrBlockParams       = errors.New("conditional block cannot declare block params")
	ErrUnknownStatement  = errors.New("unknown statement kind")
	ErrUnknownExpression = errors.New("unknown expression kind")
	ErrTooLarge          = errors.New("program exceeds operand limits")
	ErrPartialsDisabled  = errors.New("partial in a layout that does not declare partials")
)
