// Package parser turns s-expression source text into expression trees.
package parser

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/thomasrohde/memoscheme/pkg/ast"
	"github.com/thomasrohde/memoscheme/pkg/diagnostics"
	"github.com/thomasrohde/memoscheme/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses every top-level form.
func Parse(source, filename string) ([]ast.Expr, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens, pos: 0}
	var forms []ast.Expr
	for p.peek() != lexer.TokEOF {
		form, ok := p.parseExpr()
		if !ok {
			break
		}
		forms = append(forms, form)
	}
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return forms, nil
}

// ParseExpr parses source that must contain exactly one form.
func ParseExpr(source, filename string) (ast.Expr, []diagnostics.Diagnostic) {
	forms, diags := Parse(source, filename)
	if len(diags) > 0 {
		return nil, diags
	}
	switch len(forms) {
	case 0:
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, "expected an expression, got end of input", nil, "")}
	case 1:
		return forms[0], nil
	}
	span := forms[1].NodeSpan()
	return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, fmt.Sprintf("expected a single expression, got %d", len(forms)), &span, "")}
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) addError(msg string, span *ast.Span, hint string) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, hint))
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func (p *parser) parseExpr() (ast.Expr, bool) {
	return p.parseItem(false)
}

// parseItem parses one expression. emptyOK allows the empty list, which is
// only meaningful as the parameter list of a lambda.
func (p *parser) parseItem(emptyOK bool) (ast.Expr, bool) {
	tok := p.current()
	switch tok.Type {
	case lexer.TokLParen:
		return p.parseList(emptyOK)

	case lexer.TokRParen:
		p.advance()
		p.addError("unexpected ')'", &tok.Span, "remove the unmatched closing parenthesis")
		return nil, false

	case lexer.TokIntLit:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			if b, ok := new(big.Int).SetString(tok.Value, 10); ok {
				return &ast.Number{Span: tok.Span, Big: b}, true
			}
		}
		if err != nil {
			p.addError(fmt.Sprintf("invalid integer literal '%s'", tok.Value), &tok.Span, "")
			return nil, false
		}
		return &ast.Number{Span: tok.Span, Int: v}, true

	case lexer.TokFloatLit:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid float literal '%s'", tok.Value), &tok.Span, "")
			return nil, false
		}
		return &ast.Number{Span: tok.Span, Float: v, IsFloat: true}, true

	case lexer.TokSymbol:
		p.advance()
		return &ast.Symbol{Span: tok.Span, Name: tok.Value}, true
	}

	p.addError(fmt.Sprintf("expected an expression, got %s", tok.Type), &tok.Span, "")
	return nil, false
}

func (p *parser) parseList(emptyOK bool) (ast.Expr, bool) {
	open := p.advance() // consume (
	var items []ast.Expr

	for {
		switch p.peek() {
		case lexer.TokRParen:
			closeTok := p.advance()
			span := p.spanFromTo(open.Span, closeTok.Span)
			if len(items) == 0 && !emptyOK {
				p.addError("empty form '()' is not an expression", &span, "")
				return nil, false
			}
			return &ast.List{Span: span, Items: items}, true

		case lexer.TokEOF:
			p.addError("unterminated form: missing ')'", &open.Span, "add a closing parenthesis")
			return nil, false
		}

		item, ok := p.parseItem(len(items) == 1 && isLambda(items[0]))
		if !ok {
			return nil, false
		}
		items = append(items, item)
	}
}

func isLambda(e ast.Expr) bool {
	name, ok := ast.SymbolName(e)
	return ok && name == "lambda"
}
