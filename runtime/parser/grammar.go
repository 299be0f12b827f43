package parser

import (
	"sync"

	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/grammar"
	"github.com/compilingdogs/pd/runtime/lexer"
)

var (
	defaultOnce    sync.Once
	defaultGrammar *grammar.Grammar
)

// Default returns the shared, sealed PD grammar
func Default() *grammar.Grammar {
	defaultOnce.Do(func() {
		defaultGrammar = NewGrammar()
	})
	return defaultGrammar
}

// NewGrammar declares the PD language and seals it with "program" as the
// start rule. Every binary precedence level attaches a Binary node; levels
// without an operator leave pass-through wrappers that ast.Unwrap elides.
func NewGrammar() *grammar.Grammar {
	g := grammar.New()

	expr := g.Rule("expression")
	statement := g.Rule("statement")
	body := g.Rule("body")
	reference := g.Rule("reference")
	primary := g.Rule("primary")

	sep := grammar.Any("separator", grammar.Tok(lexer.NEWLINE), grammar.Tok(lexer.SEMICOLON))
	assignOp := grammar.Any("assignment operator", grammar.Tok(lexer.ASSIGN), grammar.Tok(lexer.EQUALS))

	// Statement lists: separators may lead, trail and repeat
	statements := func(name string) *grammar.Concatenation {
		return grammar.Concat(name,
			grammar.Repeat("separators", sep),
			grammar.Maybe("statements",
				statement,
				grammar.Repeat("more statements", sep, grammar.Repeat("separators", sep), statement),
			),
			grammar.Repeat("separators", sep),
		)
	}
	g.Define("program", statements("program").As(ast.KindProgram))
	g.Define("body", statements("body").As(ast.KindBody))

	g.Define("statement", grammar.Any("statement",
		g.Rule("declaration"),
		g.Rule("assignment"),
		g.Rule("if"),
		g.Rule("for"),
		g.Rule("while"),
		g.Rule("print"),
		g.Rule("return"),
	))

	varDef := grammar.Concat("variable",
		grammar.Tok(lexer.IDENTIFIER),
		grammar.Maybe("initializer", assignOp, expr),
	).As(ast.KindVarDefinition)
	g.Define("declaration", grammar.Concat("declaration",
		grammar.Tok(lexer.VAR), varDef, grammar.Repeat("definitions", grammar.Tok(lexer.COMMA), varDef),
	).As(ast.KindDeclaration))

	g.Define("assignment", grammar.Concat("assignment", reference, assignOp, expr).As(ast.KindAssignment))

	g.Define("print", grammar.Concat("print",
		grammar.Tok(lexer.PRINT), expr, grammar.Repeat("arguments", grammar.Tok(lexer.COMMA), expr),
	).As(ast.KindPrint))

	g.Define("return", grammar.Concat("return", grammar.Tok(lexer.RETURN), grammar.Maybe("value", expr)).As(ast.KindReturn))

	g.Define("if", grammar.Concat("if",
		grammar.Tok(lexer.IF), expr, grammar.Tok(lexer.THEN), body,
		grammar.Maybe("else", grammar.Tok(lexer.ELSE), body),
		grammar.Tok(lexer.END),
	).As(ast.KindIf))

	rangeHeader := grammar.Concat("range",
		grammar.Maybe("variable", grammar.Capture(lexer.IDENTIFIER), grammar.Tok(lexer.IN)),
		expr, grammar.Tok(lexer.RANGE), expr,
	)
	iterHeader := grammar.Concat("iteration", grammar.Capture(lexer.IDENTIFIER), grammar.Tok(lexer.IN), expr)
	g.Define("for", grammar.Concat("for",
		grammar.Tok(lexer.FOR), grammar.Any("loop header", rangeHeader, iterHeader),
		grammar.Tok(lexer.LOOP), body, grammar.Tok(lexer.END),
	).As(ast.KindFor))

	g.Define("while", grammar.Concat("while",
		grammar.Tok(lexer.WHILE), expr, grammar.Tok(lexer.LOOP), body, grammar.Tok(lexer.END),
	).As(ast.KindWhile))

	// Expressions, loosest binding first
	tail := func(name string, operand grammar.Node, ops ...lexer.TokenType) *grammar.Repetition {
		variants := make([]grammar.Node, len(ops))
		for i, op := range ops {
			variants[i] = grammar.Tok(op)
		}
		return grammar.Repeat(name, grammar.Concat(name, grammar.Any("operator", variants...), operand).As(ast.KindOperatorTail))
	}

	relation := g.Rule("relation")
	factor := g.Rule("factor")
	term := g.Rule("term")
	unary := g.Rule("unary")

	g.Define("expression", grammar.Concat("expression",
		relation, tail("logical", relation, lexer.OR, lexer.AND, lexer.XOR),
	).As(ast.KindBinary))

	relop := grammar.Any("comparison",
		grammar.Tok(lexer.LT), grammar.Tok(lexer.LT_EQ), grammar.Tok(lexer.GT), grammar.Tok(lexer.GT_EQ), grammar.Tok(lexer.EQUALS), grammar.Tok(lexer.NOT_EQ),
	)
	g.Define("relation", grammar.Concat("relation",
		factor, grammar.Maybe("comparison", grammar.Concat("comparison", relop, factor).As(ast.KindOperatorTail)),
	).As(ast.KindBinary))

	g.Define("factor", grammar.Concat("factor", term, tail("additive", term, lexer.PLUS, lexer.MINUS)).As(ast.KindBinary))
	g.Define("term", grammar.Concat("term", unary, tail("multiplicative", unary, lexer.MULTIPLY, lexer.DIVIDE)).As(ast.KindBinary))

	g.Define("unary", grammar.Any("unary",
		grammar.Concat("signed",
			grammar.Any("sign", grammar.Tok(lexer.PLUS), grammar.Tok(lexer.MINUS), grammar.Tok(lexer.NOT)), primary,
		).As(ast.KindUnary),
		grammar.Concat("typecheck",
			primary, grammar.Maybe("type check", grammar.Tok(lexer.IS), g.Rule("type")),
		).As(ast.KindTypeCheck),
	))

	typeName := func(t lexer.TokenType) *grammar.TokenMatch { return grammar.Capture(t).As(ast.KindTypeIndicator) }
	g.Define("type", grammar.Any("type",
		typeName(lexer.INT_TYPE),
		typeName(lexer.REAL_TYPE),
		typeName(lexer.BOOL_TYPE),
		typeName(lexer.STRING_TYPE),
		typeName(lexer.EMPTY),
		typeName(lexer.FUNC),
		grammar.Concat("array type", grammar.Tok(lexer.LSQUARE), grammar.Tok(lexer.RSQUARE)).As(ast.KindTypeIndicator),
		grammar.Concat("tuple type", grammar.Tok(lexer.LBRACE), grammar.Tok(lexer.RBRACE)).As(ast.KindTypeIndicator),
	))

	readCall := func(t lexer.TokenType, kind ast.Kind) *grammar.Concatenation {
		return grammar.Concat(t.Symbol(), grammar.Tok(t), grammar.Maybe("()", grammar.Tok(lexer.LPAREN), grammar.Tok(lexer.RPAREN))).As(kind)
	}
	g.Define("primary", grammar.Any("primary",
		g.Rule("call"),
		grammar.Concat("parenthesized", grammar.Tok(lexer.LPAREN), expr, grammar.Tok(lexer.RPAREN)),
		reference,
		readCall(lexer.READ_INT, ast.KindReadInt),
		readCall(lexer.READ_REAL, ast.KindReadReal),
		readCall(lexer.READ_STRING, ast.KindReadString),
		g.Rule("literal"),
	))

	g.Define("call", grammar.Concat("call",
		reference,
		grammar.Tok(lexer.LPAREN),
		grammar.Maybe("arguments", expr, grammar.Repeat("arguments", grammar.Tok(lexer.COMMA), expr)),
		grammar.Tok(lexer.RPAREN),
	).As(ast.KindCall))

	g.Define("reference", grammar.Concat("reference",
		grammar.Tok(lexer.IDENTIFIER),
		grammar.Repeat("accessors", grammar.Any("accessor",
			grammar.Concat("index", grammar.Tok(lexer.LSQUARE), expr, grammar.Tok(lexer.RSQUARE)).As(ast.KindIndexAccessor),
			grammar.Concat("member", grammar.Tok(lexer.DOT),
				grammar.Any("member name", grammar.Capture(lexer.IDENTIFIER), grammar.Capture(lexer.INTEGER)),
			).As(ast.KindMemberAccessor),
		)),
	).As(ast.KindReference))

	g.Define("literal", grammar.Any("literal",
		grammar.Capture(lexer.INTEGER).As(ast.KindInteger),
		grammar.Capture(lexer.FLOAT).As(ast.KindReal),
		grammar.Capture(lexer.STRING).As(ast.KindString),
		grammar.Capture(lexer.TRUE).As(ast.KindBoolean),
		grammar.Capture(lexer.FALSE).As(ast.KindBoolean),
		grammar.Capture(lexer.EMPTY).As(ast.KindEmpty),
		g.Rule("array"),
		g.Rule("tuple"),
		g.Rule("function"),
	))

	g.Define("array", grammar.Concat("array",
		grammar.Tok(lexer.LSQUARE),
		grammar.Maybe("elements", expr, grammar.Repeat("elements", grammar.Tok(lexer.COMMA), expr)),
		grammar.Tok(lexer.RSQUARE),
	).As(ast.KindArray))

	element := grammar.Concat("element",
		grammar.Maybe("element name", grammar.Capture(lexer.IDENTIFIER), assignOp),
		expr,
	).As(ast.KindTupleElement)
	g.Define("tuple", grammar.Concat("tuple",
		grammar.Tok(lexer.LBRACE),
		grammar.Maybe("elements", element, grammar.Repeat("elements", grammar.Tok(lexer.COMMA), element)),
		grammar.Tok(lexer.RBRACE),
	).As(ast.KindTuple))

	g.Define("function", grammar.Concat("function",
		grammar.Tok(lexer.FUNC),
		grammar.Maybe("parameters",
			grammar.Tok(lexer.LPAREN),
			grammar.Maybe("parameters",
				grammar.Capture(lexer.IDENTIFIER),
				grammar.Repeat("parameters", grammar.Tok(lexer.COMMA), grammar.Capture(lexer.IDENTIFIER)),
			),
			grammar.Tok(lexer.RPAREN),
		),
		grammar.Any("function body",
			grammar.Concat("function body", grammar.Tok(lexer.IS), body, grammar.Tok(lexer.END)),
			grammar.Concat("lambda", grammar.Tok(lexer.ARROW), grammar.Any("lambda body", statement, expr)).As(ast.KindLambdaBody),
		),
	).As(ast.KindFunction))

	return g.Seal("program")
}
