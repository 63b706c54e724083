package wire

// Constructors for statements and expressions. They keep hand-built trees in
// tests and in the compiler's synthetic wrapping readable.

func Text(value string) Statement {
	return Statement{Kind: StmtText, Value: value}
}

func Comment(value string) Statement {
	return Statement{Kind: StmtComment, Value: value}
}

func Append(expr Expression, trusted bool) Statement {
	return Statement{Kind: StmtAppend, Expr: &expr, Trusted: trusted}
}

func OpenElement(tag string) Statement {
	return Statement{Kind: StmtOpenElement, Name: tag}
}

func OpenDynamicElement(tag Expression) Statement {
	return Statement{Kind: StmtOpenDynamicElement, Expr: &tag}
}

func StaticAttr(name, value string) Statement {
	return Statement{Kind: StmtStaticAttr, Name: name, Value: value}
}

func DynamicAttr(name string, value Expression) Statement {
	return Statement{Kind: StmtDynamicAttr, Name: name, Expr: &value}
}

func FlushElement() Statement {
	return Statement{Kind: StmtFlushElement}
}

func CloseElement() Statement {
	return Statement{Kind: StmtCloseElement}
}

// Let binds the value of expr to a local visible to the statements that
// follow it in the same list.
func Let(name string, expr Expression) Statement {
	return Statement{Kind: StmtLet, Name: name, Expr: &expr}
}

// If renders body when cond is truthy and inverse (which may be nil)
// otherwise.
func If(cond Expression, body []Statement, inverse []Statement) Statement {
	s := Statement{Kind: StmtBlock, Expr: &cond, Default: &Block{Statements: body}}
	if inverse != nil {
		s.Inverse = &Block{Statements: inverse}
	}
	return s
}

func Yield(name string, params ...Expression) Statement {
	return Statement{Kind: StmtYield, Name: name, Params: params}
}

func Component(name string, params []Expression, hash []HashPair, def, inverse *Block) Statement {
	return Statement{Kind: StmtComponent, Name: name, Params: params, Hash: hash, Default: def, Inverse: inverse}
}

// DynamicComponent invokes the component definition produced by calling
// resolver with definitionArgs at render time. An empty resolver selects the
// compiler's configured default.
func DynamicComponent(resolver string, definitionArgs []Expression, hash []HashPair, def, inverse *Block) Statement {
	return Statement{Kind: StmtDynamicComponent, Name: resolver, Params: definitionArgs, Hash: hash, Default: def, Inverse: inverse}
}

// Partial renders the partial named by the value of name, with access to
// the locals in scope.
func Partial(name Expression) Statement {
	return Statement{Kind: StmtPartial, Expr: &name}
}

// Modifier installs an element modifier on the element being opened. It
// belongs between the open and flush of that element.
func Modifier(name string, params []Expression, hash []HashPair) Statement {
	return Statement{Kind: StmtModifier, Name: name, Params: params, Hash: hash}
}

func ClientSideStatement(name string, params ...Expression) Statement {
	return Statement{Kind: StmtClientSide, Name: name, Params: params}
}

func Literal(value any) Expression {
	return Expression{Kind: ExprLiteral, Value: value}
}

func Get(head string, path ...string) Expression {
	return Expression{Kind: ExprGet, Name: head, Path: path}
}

func Helper(name string, params []Expression, hash []HashPair) Expression {
	return Expression{Kind: ExprHelper, Name: name, Params: params, Hash: hash}
}

func Concat(parts ...Expression) Expression {
	return Expression{Kind: ExprConcat, Params: parts}
}

func HasBlock(name string) Expression {
	return Expression{Kind: ExprHasBlock, Name: name}
}

func ClientSideExpression(name string, params ...Expression) Expression {
	return Expression{Kind: ExprClientSide, Name: name, Params: params}
}

func Pair(key string, value Expression) HashPair {
	return HashPair{Key: key, Value: value}
}
