package query

import (
	"strings"

	"github.com/ontoforge/tern/internal/store"
	"github.com/ontoforge/tern/pkg/rdf"
)

// Parser parses query text into a Query
type Parser struct {
	input    string
	pos      int
	length   int
	prefixes map[string]string
}

// NewParser creates a new query parser
func NewParser(input string) *Parser {
	return &Parser{
		input:    input,
		length:   len(input),
		prefixes: make(map[string]string),
	}
}

// Parse parses the query text. Errors are *SyntaxError.
func (p *Parser) Parse() (*Query, error) {
	p.skipWhitespace()

	for p.matchKeyword("PREFIX") {
		if err := p.parsePrefix(); err != nil {
			return nil, err
		}
		p.skipWhitespace()
	}

	var query *Query
	var err error
	switch {
	case p.matchKeyword("SELECT"):
		query, err = p.parseSelect()
	case p.matchKeyword("ASK"):
		query, err = p.parseAsk()
	default:
		pattern, perr := p.parsePattern()
		if perr != nil {
			return nil, perr
		}
		query = &Query{Pattern: pattern}
	}
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()
	if p.pos < p.length {
		return nil, p.errorHere("unexpected trailing input")
	}

	return query, nil
}

// parseSelect parses the remainder of a SELECT query
func (p *Parser) parseSelect() (*Query, error) {
	projection, err := p.parseProjection()
	if err != nil {
		return nil, err
	}

	if !p.matchKeyword("WHERE") {
		return nil, p.errorHere("expected WHERE clause")
	}

	pattern, err := p.parseGroup()
	if err != nil {
		return nil, err
	}

	if projection != nil {
		known := make(map[string]bool)
		for _, name := range pattern.Variables() {
			known[name] = true
		}
		for _, name := range projection {
			if !known[name] {
				return nil, &SyntaxError{Fragment: "?" + name, Reason: "projected variable does not occur in the pattern"}
			}
		}
	}

	return &Query{Pattern: pattern, Projection: projection}, nil
}

// parseAsk parses the remainder of an ASK query
func (p *Parser) parseAsk() (*Query, error) {
	pattern, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	return &Query{Pattern: pattern, Ask: true}, nil
}

// parseProjection parses '*' or a list of variables
func (p *Parser) parseProjection() ([]string, error) {
	p.skipWhitespace()

	if p.peek() == '*' {
		p.pos++
		p.skipWhitespace()
		return nil, nil
	}

	var names []string
	for {
		p.skipWhitespace()
		if p.peek() != '?' && p.peek() != '$' {
			break
		}
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		names = append(names, v.Name)
	}

	if len(names) == 0 {
		return nil, p.errorHere("expected '*' or at least one variable")
	}
	return names, nil
}

// parseGroup parses a triple pattern enclosed in braces
func (p *Parser) parseGroup() (*store.Pattern, error) {
	p.skipWhitespace()
	if p.peek() != '{' {
		return nil, p.errorHere("expected '{'")
	}
	p.pos++

	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()
	if p.peek() != '}' {
		return nil, p.errorHere("expected '}'")
	}
	p.pos++

	return pattern, nil
}

// parsePattern parses a triple pattern with an optional trailing '.'
func (p *Parser) parsePattern() (*store.Pattern, error) {
	subject, err := p.parseTermOrVariable(false)
	if err != nil {
		return nil, err
	}

	predicate, err := p.parseTermOrVariable(true)
	if err != nil {
		return nil, err
	}

	object, err := p.parseTermOrVariable(false)
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()
	if p.peek() == '.' {
		p.pos++
	}

	return &store.Pattern{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}, nil
}

// parseTermOrVariable parses one pattern position. The 'a' keyword is
// accepted in the predicate position only.
func (p *Parser) parseTermOrVariable(predicatePos bool) (interface{}, error) {
	p.skipWhitespace()

	ch := p.peek()
	switch {
	case ch == '?' || ch == '$':
		return p.parseVariable()

	case ch == '<':
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(iri), nil

	case ch == '"':
		return p.parseLiteral()

	case ch == '_' && p.peekAt(1) == ':':
		return p.parseBlankNode()

	case ch >= '0' && ch <= '9' || ch == '-' || ch == '+':
		return p.parseNumber()

	case predicatePos && ch == 'a' && !isNameByte(p.peekAt(1)) && p.peekAt(1) != ':':
		p.pos++
		return rdf.RDFType, nil

	case isAlphaByte(ch) || ch == ':':
		return p.parsePrefixedName()
	}

	return nil, p.errorHere("expected term or variable")
}

// parseVariable parses a ?name or $name variable
func (p *Parser) parseVariable() (*store.Variable, error) {
	p.pos++ // consume ? or $

	name := p.readWhile(isNameByte)
	if name == "" {
		return nil, p.errorHere("invalid variable name")
	}

	return store.NewVariable(name), nil
}

// parsePrefix parses "PREFIX label: <iri>"
func (p *Parser) parsePrefix() error {
	p.skipWhitespace()

	label := p.readWhile(isNameByte)
	if p.peek() != ':' {
		return p.errorHere("expected ':' after prefix label")
	}
	p.pos++

	p.skipWhitespace()
	iri, err := p.parseIRI()
	if err != nil {
		return err
	}

	p.prefixes[label] = iri
	return nil
}

// parseIRI parses an IRI enclosed in angle brackets
func (p *Parser) parseIRI() (string, error) {
	if p.peek() != '<' {
		return "", p.errorHere("expected '<' to start IRI")
	}
	p.pos++

	iri := p.readWhile(func(ch byte) bool { return ch != '>' && ch != '\n' })
	if p.peek() != '>' {
		return "", p.errorHere("unclosed IRI")
	}
	p.pos++

	return iri, nil
}

// parsePrefixedName parses a compact name against the prologue
func (p *Parser) parsePrefixedName() (rdf.Term, error) {
	start := p.pos

	label := p.readWhile(isNameByte)
	if p.peek() != ':' {
		p.pos = start
		return nil, p.errorHere("expected prefixed name")
	}
	p.pos++
	local := p.readWhile(isNameByte)

	namespace, ok := p.prefixes[label]
	if !ok {
		p.pos = start
		return nil, p.errorHere("undefined prefix " + label)
	}

	return rdf.NewNamedNode(namespace + local), nil
}

// parseBlankNode parses a blank node label
func (p *Parser) parseBlankNode() (rdf.Term, error) {
	p.pos += 2 // consume '_:'

	id := p.readWhile(isNameByte)
	if id == "" {
		return nil, p.errorHere("empty blank node label")
	}

	return rdf.NewBlankNode(id), nil
}

// parseLiteral parses a quoted literal with optional tag or datatype
func (p *Parser) parseLiteral() (rdf.Term, error) {
	p.pos++ // consume '"'

	var value strings.Builder
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == '"' {
			break
		}
		if ch == '\\' && p.pos+1 < p.length {
			p.pos++
			switch p.input[p.pos] {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			default:
				value.WriteByte(p.input[p.pos])
			}
			p.pos++
			continue
		}
		value.WriteByte(ch)
		p.pos++
	}

	if p.peek() != '"' {
		return nil, p.errorHere("unclosed string literal")
	}
	p.pos++

	if p.peek() == '@' {
		p.pos++
		lang := p.readWhile(func(ch byte) bool { return isAlphaByte(ch) || ch == '-' })
		if lang == "" {
			return nil, p.errorHere("empty language tag")
		}
		return rdf.NewLiteralWithLanguage(value.String(), lang), nil
	}

	if p.peek() == '^' && p.peekAt(1) == '^' {
		p.pos += 2
		if p.peek() == '<' {
			iri, err := p.parseIRI()
			if err != nil {
				return nil, err
			}
			return rdf.NewLiteralWithDatatype(value.String(), rdf.NewNamedNode(iri)), nil
		}
		term, err := p.parsePrefixedName()
		if err != nil {
			return nil, err
		}
		return rdf.NewLiteralWithDatatype(value.String(), term.(*rdf.NamedNode)), nil
	}

	return rdf.NewLiteral(value.String()), nil
}

// parseNumber parses a numeric literal keeping its lexical form
func (p *Parser) parseNumber() (rdf.Term, error) {
	start := p.pos

	if p.peek() == '+' || p.peek() == '-' {
		p.pos++
	}

	digits := p.readWhile(func(ch byte) bool { return ch >= '0' && ch <= '9' })
	if digits == "" {
		return nil, p.errorHere("expected digits in number")
	}

	if p.peek() == '.' && p.peekAt(1) >= '0' && p.peekAt(1) <= '9' {
		p.pos++
		p.readWhile(func(ch byte) bool { return ch >= '0' && ch <= '9' })
		return rdf.NewDoubleLiteral(p.input[start:p.pos]), nil
	}

	return rdf.NewIntegerLiteral(p.input[start:p.pos]), nil
}

// matchKeyword consumes a case-insensitive keyword
func (p *Parser) matchKeyword(keyword string) bool {
	p.skipWhitespace()

	if p.pos+len(keyword) > p.length {
		return false
	}
	if !strings.EqualFold(p.input[p.pos:p.pos+len(keyword)], keyword) {
		return false
	}
	if p.pos+len(keyword) < p.length && isNameByte(p.input[p.pos+len(keyword)]) {
		return false
	}

	p.pos += len(keyword)
	return true
}

func (p *Parser) skipWhitespace() {
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			break
		}
		p.pos++
	}
}

func (p *Parser) peek() byte {
	return p.peekAt(0)
}

func (p *Parser) peekAt(offset int) byte {
	if p.pos+offset >= p.length {
		return 0
	}
	return p.input[p.pos+offset]
}

func (p *Parser) readWhile(pred func(byte) bool) string {
	start := p.pos
	for p.pos < p.length && pred(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// errorHere builds a SyntaxError carrying the upcoming input fragment
func (p *Parser) errorHere(reason string) *SyntaxError {
	const fragmentLen = 24

	end := p.pos + fragmentLen
	if end > p.length {
		end = p.length
	}
	fragment := strings.TrimSpace(p.input[p.pos:end])
	if fragment == "" {
		fragment = "<end of input>"
	}

	return &SyntaxError{Fragment: fragment, Reason: reason}
}

func isAlphaByte(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isNameByte(ch byte) bool {
	return isAlphaByte(ch) || ch >= '0' && ch <= '9' || ch == '_' || ch == '-'
}
