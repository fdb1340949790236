package turtle

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ontoforge/tern/pkg/rdf"
)

// Warning records a statement that was skipped during a best-effort
// parse, referencing the line it started on.
type Warning struct {
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// FatalError is an unrecoverable input condition, such as an
// unterminated prefix declaration. Unlike per-statement warnings it
// aborts the whole parse.
type FatalError struct {
	Line   int
	Reason string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal parse error at line %d: %s", e.Line, e.Reason)
}

// Parser is a tolerant parser for a Turtle-style statement grammar:
// a subject followed by ';'-separated predicate/object groups with
// ','-separated object lists, terminated by '.'. A statement that is
// complete at the end of a line is accepted without the terminator,
// which also covers flat "subject predicate object" lines. Malformed
// statements are skipped and recorded as warnings.
//
// Prefix declarations and blank node labels are scoped to one Parse
// call; neither survives into the store.
type Parser struct {
	input    string
	pos      int
	length   int
	prefixes map[string]string
	bnodes   map[string]*rdf.BlankNode
	warnings []Warning
}

// NewParser creates a new parser over the given input
func NewParser(input string) *Parser {
	return &Parser{
		input:    input,
		length:   len(input),
		prefixes: make(map[string]string),
		bnodes:   make(map[string]*rdf.BlankNode),
	}
}

// Parse parses the input and returns the triples in document order
// together with the warnings for skipped statements. A non-nil error
// is a *FatalError; no triples are returned alongside one.
func (p *Parser) Parse() ([]*rdf.Triple, []Warning, error) {
	var triples []*rdf.Triple

	for p.pos < p.length {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			break
		}

		if p.matchKeyword("@prefix") || p.matchKeyword("PREFIX") {
			if err := p.parsePrefix(); err != nil {
				return nil, p.warnings, err
			}
			continue
		}

		if p.matchKeyword("@base") || p.matchKeyword("BASE") {
			if err := p.parseBase(); err != nil {
				return nil, p.warnings, err
			}
			continue
		}

		start := p.pos
		stmt, err := p.parseStatement()
		if err != nil {
			p.warnings = append(p.warnings, Warning{
				Line:    p.lineAt(start),
				Message: err.Error(),
			})
			p.recoverStatement()
			continue
		}
		triples = append(triples, stmt...)
	}

	return triples, p.warnings, nil
}

// lineAt returns the 1-based line number of a byte offset
func (p *Parser) lineAt(pos int) int {
	if pos > p.length {
		pos = p.length
	}
	return 1 + strings.Count(p.input[:pos], "\n")
}

// recoverStatement skips past the next statement terminator or line
// break so parsing can continue after a malformed statement.
func (p *Parser) recoverStatement() {
	for p.pos < p.length {
		ch := p.input[p.pos]
		p.pos++
		if ch == '.' || ch == '\n' {
			return
		}
	}
}

// skipWhitespaceAndComments skips whitespace and '#' comments,
// reporting whether a line break was crossed.
func (p *Parser) skipWhitespaceAndComments() bool {
	crossed := false
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == '\n' {
			crossed = true
			p.pos++
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' {
			p.pos++
			continue
		}
		if ch == '#' {
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
	return crossed
}

// matchKeyword checks if the current position matches a keyword
func (p *Parser) matchKeyword(keyword string) bool {
	if p.pos+len(keyword) > p.length {
		return false
	}

	if !strings.EqualFold(p.input[p.pos:p.pos+len(keyword)], keyword) {
		return false
	}

	// The keyword must not run into an identifier character
	if p.pos+len(keyword) < p.length {
		next := p.input[p.pos+len(keyword)]
		if isAlphaNum(next) {
			return false
		}
	}

	p.pos += len(keyword)
	return true
}

// parsePrefix parses a prefix declaration. Errors here are fatal:
// every compact name after a broken declaration would expand wrongly.
func (p *Parser) parsePrefix() error {
	start := p.pos
	p.skipWhitespaceAndComments()

	labelStart := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' && !isWhitespace(p.input[p.pos]) {
		p.pos++
	}
	label := p.input[labelStart:p.pos]

	if p.pos >= p.length || p.input[p.pos] != ':' {
		return &FatalError{Line: p.lineAt(start), Reason: "expected ':' after prefix label"}
	}
	p.pos++ // skip ':'

	p.skipWhitespaceAndComments()

	iri, err := p.parseIRI()
	if err != nil {
		return &FatalError{Line: p.lineAt(start), Reason: "unterminated prefix declaration: " + err.Error()}
	}

	p.prefixes[label] = iri

	p.skipWhitespaceAndComments()
	if p.pos < p.length && p.input[p.pos] == '.' {
		p.pos++ // skip terminator
	}

	return nil
}

// parseBase parses and discards a base declaration. Relative IRI
// resolution is out of scope; the directive is tolerated so documents
// carrying one still load.
func (p *Parser) parseBase() error {
	start := p.pos
	p.skipWhitespaceAndComments()

	if _, err := p.parseIRI(); err != nil {
		return &FatalError{Line: p.lineAt(start), Reason: "unterminated base declaration: " + err.Error()}
	}

	p.skipWhitespaceAndComments()
	if p.pos < p.length && p.input[p.pos] == '.' {
		p.pos++
	}

	return nil
}

type delimiter int

const (
	delimEnd delimiter = iota
	delimComma
	delimSemicolon
)

// parseStatement parses one subject with its predicate/object groups
func (p *Parser) parseStatement() ([]*rdf.Triple, error) {
	subject, err := p.parseTerm()
	if err != nil {
		return nil, errors.Wrap(err, "subject")
	}

	var triples []*rdf.Triple

	for {
		p.skipWhitespaceAndComments()
		predicate, err := p.parsePredicate()
		if err != nil {
			return nil, errors.Wrap(err, "predicate")
		}

	objects:
		for {
			p.skipWhitespaceAndComments()
			object, err := p.parseTerm()
			if err != nil {
				return nil, errors.Wrap(err, "object")
			}

			triple := rdf.NewTriple(subject, predicate, object)
			if !triple.IsValid() {
				return nil, errors.Newf("ill-formed triple %s", triple)
			}
			triples = append(triples, triple)

			delim, err := p.statementDelimiter()
			if err != nil {
				return nil, err
			}
			switch delim {
			case delimComma:
				continue // next object, same predicate
			case delimSemicolon:
				// A trailing ';' may be followed directly by the
				// statement terminator.
				p.skipWhitespaceAndComments()
				if p.pos < p.length && p.input[p.pos] == '.' {
					p.pos++
					return triples, nil
				}
				break objects // next predicate group
			case delimEnd:
				return triples, nil
			}
		}
	}
}

// statementDelimiter consumes the token following an object: ','
// continues the object list, ';' starts a new predicate group and '.'
// ends the statement. A line break or end of input after a complete
// group also ends the statement; that is the flat-grammar fallback.
func (p *Parser) statementDelimiter() (delimiter, error) {
	crossedLine := p.skipWhitespaceAndComments()

	if p.pos >= p.length {
		return delimEnd, nil
	}

	switch p.input[p.pos] {
	case ',':
		p.pos++
		return delimComma, nil
	case ';':
		p.pos++
		return delimSemicolon, nil
	case '.':
		p.pos++
		return delimEnd, nil
	}

	if crossedLine {
		return delimEnd, nil
	}
	return 0, errors.Newf("expected '.', ';' or ',' after object, got %q", p.input[p.pos])
}

// parsePredicate parses a predicate term, accepting the 'a' shorthand
func (p *Parser) parsePredicate() (rdf.Term, error) {
	if p.pos < p.length && p.input[p.pos] == 'a' {
		if p.pos+1 >= p.length || !isNameChar(p.input[p.pos+1]) && p.input[p.pos+1] != ':' {
			p.pos++
			return rdf.RDFType, nil
		}
	}
	return p.parseTerm()
}

// parseTerm parses an RDF term (IRI, blank node, or literal)
func (p *Parser) parseTerm() (rdf.Term, error) {
	p.skipWhitespaceAndComments()

	if p.pos >= p.length {
		return nil, errors.New("unexpected end of input")
	}

	ch := p.input[p.pos]

	// IRI in angle brackets
	if ch == '<' {
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(iri), nil
	}

	// Blank node
	if ch == '_' && p.pos+1 < p.length && p.input[p.pos+1] == ':' {
		return p.parseBlankNode()
	}

	// String literal
	if ch == '"' {
		return p.parseLiteral()
	}

	// Number literal
	if ch >= '0' && ch <= '9' || ch == '-' || ch == '+' {
		return p.parseNumber()
	}

	// Prefixed name (possibly with an empty prefix label)
	if isAlpha(ch) || ch == ':' {
		return p.parsePrefixedName()
	}

	return nil, errors.Newf("unexpected character %q", ch)
}

// parseIRI parses an IRI in angle brackets
func (p *Parser) parseIRI() (string, error) {
	if p.pos >= p.length || p.input[p.pos] != '<' {
		return "", errors.New("expected '<' at start of IRI")
	}
	p.pos++ // skip '<'

	start := p.pos
	for p.pos < p.length && p.input[p.pos] != '>' && p.input[p.pos] != '\n' {
		p.pos++
	}

	if p.pos >= p.length || p.input[p.pos] != '>' {
		return "", errors.New("unclosed IRI")
	}

	iri := p.input[start:p.pos]
	p.pos++ // skip '>'

	return iri, nil
}

// parseBlankNode parses a blank node label. The same label always
// yields the same node within one Parse call.
func (p *Parser) parseBlankNode() (rdf.Term, error) {
	p.pos += 2 // skip '_:'

	start := p.pos
	for p.pos < p.length && isNameChar(p.input[p.pos]) {
		p.pos++
	}

	label := p.input[start:p.pos]
	if label == "" {
		return nil, errors.New("empty blank node label")
	}

	if node, ok := p.bnodes[label]; ok {
		return node, nil
	}
	node := rdf.NewBlankNode(label)
	p.bnodes[label] = node
	return node, nil
}

// parseLiteral parses a quoted literal with an optional language tag
// or datatype suffix. The suffix must be adjacent to the closing
// quote; otherwise the literal is plain.
func (p *Parser) parseLiteral() (rdf.Term, error) {
	p.pos++ // skip opening '"'

	var value strings.Builder
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == '"' {
			break
		}
		if ch == '\n' {
			return nil, errors.New("unterminated string literal")
		}
		if ch == '\\' && p.pos+1 < p.length {
			p.pos++
			switch p.input[p.pos] {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			case '"':
				value.WriteByte('"')
			case '\\':
				value.WriteByte('\\')
			default:
				value.WriteByte(p.input[p.pos])
			}
			p.pos++
		} else {
			value.WriteByte(ch)
			p.pos++
		}
	}

	if p.pos >= p.length {
		return nil, errors.New("unterminated string literal")
	}
	p.pos++ // skip closing '"'

	// Language tag
	if p.pos < p.length && p.input[p.pos] == '@' {
		p.pos++
		langStart := p.pos
		for p.pos < p.length && (isAlpha(p.input[p.pos]) || p.input[p.pos] == '-') {
			p.pos++
		}
		lang := p.input[langStart:p.pos]
		if lang == "" {
			return nil, errors.New("empty language tag")
		}
		return rdf.NewLiteralWithLanguage(value.String(), lang), nil
	}

	// Datatype
	if p.pos+1 < p.length && p.input[p.pos] == '^' && p.input[p.pos+1] == '^' {
		p.pos += 2
		datatype, err := p.parseDatatype()
		if err != nil {
			return nil, err
		}
		return rdf.NewLiteralWithDatatype(value.String(), datatype), nil
	}

	return rdf.NewLiteral(value.String()), nil
}

// parseDatatype parses a datatype reference: an angle-bracket IRI or
// a compact prefixed name.
func (p *Parser) parseDatatype() (*rdf.NamedNode, error) {
	if p.pos < p.length && p.input[p.pos] == '<' {
		iri, err := p.parseIRI()
		if err != nil {
			return nil, errors.Wrap(err, "datatype")
		}
		return rdf.NewNamedNode(iri), nil
	}

	term, err := p.parsePrefixedName()
	if err != nil {
		return nil, errors.Wrap(err, "datatype")
	}
	return term.(*rdf.NamedNode), nil
}

// parseNumber parses a numeric literal, keeping the lexical form
func (p *Parser) parseNumber() (rdf.Term, error) {
	start := p.pos

	if p.input[p.pos] == '+' || p.input[p.pos] == '-' {
		p.pos++
	}

	hasDigits := false
	for p.pos < p.length && isDigit(p.input[p.pos]) {
		p.pos++
		hasDigits = true
	}
	if !hasDigits {
		return nil, errors.New("expected digits in number")
	}

	// A '.' is a decimal point only when a digit follows; otherwise it
	// is the statement terminator.
	if p.pos+1 < p.length && p.input[p.pos] == '.' && isDigit(p.input[p.pos+1]) {
		p.pos++
		for p.pos < p.length && isDigit(p.input[p.pos]) {
			p.pos++
		}
		return rdf.NewDoubleLiteral(p.input[start:p.pos]), nil
	}

	return rdf.NewIntegerLiteral(p.input[start:p.pos]), nil
}

// parsePrefixedName parses a compact name and expands its prefix
func (p *Parser) parsePrefixedName() (rdf.Term, error) {
	start := p.pos

	for p.pos < p.length && p.input[p.pos] != ':' {
		if !isNameChar(p.input[p.pos]) {
			break
		}
		p.pos++
	}

	if p.pos >= p.length || p.input[p.pos] != ':' {
		return nil, errors.Newf("expected ':' in prefixed name %q", p.input[start:p.pos])
	}

	label := p.input[start:p.pos]
	p.pos++ // skip ':'

	localStart := p.pos
	for p.pos < p.length && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	local := p.input[localStart:p.pos]

	namespace, ok := p.prefixes[label]
	if !ok {
		return nil, errors.Newf("undefined prefix %q", label)
	}

	return rdf.NewNamedNode(namespace + local), nil
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isAlpha(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNum(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func isNameChar(ch byte) bool {
	return isAlphaNum(ch) || ch == '_' || ch == '-'
}
