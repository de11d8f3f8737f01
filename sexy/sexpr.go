package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeList
)

// Node represents any Sexy datum
type Node struct {
	Type NodeType

	// Atoms
	Text string // NodeSymbol, NodeString, NodeInteger

	// NodeList
	Items []*Node

	// Where the datum starts in the source text (1-based).
	Line   int
	Column int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		return Quote(n.Text)
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

// Quote renders s as a Sexy string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type == NodeSymbol || n.Type == NodeString || n.Type == NodeInteger
}

// IsSymbol reports whether n is the symbol name.
func (n *Node) IsSymbol(name string) bool {
	return n != nil && n.Type == NodeSymbol && n.Text == name
}

// Head returns the symbol in operator position of a list, or "".
func (n *Node) Head() string {
	if n == nil || n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Pos formats the node's source position as "line:column".
func (n *Node) Pos() string {
	return fmt.Sprintf("%d:%d", n.Line, n.Column)
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()

	result, err := p.parseDatum()
	if len(p.lexer.errors) > 0 {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, fmt.Errorf("%d:%d: expected EOF but got %s", p.currentToken.Line, p.currentToken.Column, p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.lexer.nextToken()
}

func (p *parser) parseDatum() (*Node, error) {
	tok := p.currentToken
	var node *Node
	switch tok.Type {
	case tokenSymbol:
		node = NewSymbol(tok.Value)
		p.nextToken()
	case tokenString:
		node = NewString(tok.Value)
		p.nextToken()
	case tokenInteger:
		node = NewInteger(tok.Value)
		p.nextToken()
	case tokenLParen:
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		node = list
	default:
		return nil, fmt.Errorf("%d:%d: unexpected token: %s", tok.Line, tok.Column, tok.Type)
	}
	node.Line = tok.Line
	node.Column = tok.Column
	return node, nil
}

func (p *parser) parseList() (*Node, error) {
	items := []*Node{}
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, fmt.Errorf("%d:%d: expected ')' but got %s", p.currentToken.Line, p.currentToken.Column, p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	return NewList(items...), nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenLParen
	tokenRParen
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type   tokenType
	Value  string
	Line   int
	Column int
}

type lexer struct {
	input    []rune
	position int
	current  rune
	line     int
	column   int
	errors   []string
}

func newLexer(input string) *lexer {
	l := &lexer{input: []rune(input), line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
		l.column = 0
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = l.input[l.position]
	}
	l.position++
	l.column++
}

func (l *lexer) peekChar() rune {
	if l.position >= len(l.input) {
		return 0
	}
	return l.input[l.position]
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != 0 {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	start := l.position - 1
	for isSymbolChar(l.current) {
		l.readChar()
	}
	return string(l.input[start : l.position-1])
}

func (l *lexer) readString() (string, error) {
	var sb strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return "", fmt.Errorf("%d:%d: invalid escape sequence: \\%c", l.line, l.column, l.current)
			}
		} else {
			sb.WriteRune(l.current)
		}
		l.readChar()
	}

	if l.current != '"' {
		return "", fmt.Errorf("%d:%d: unterminated string", l.line, l.column)
	}
	l.readChar() // skip closing quote

	return sb.String(), nil
}

func (l *lexer) readInteger() string {
	start := l.position - 1
	if l.current == '+' || l.current == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.current) {
		l.readChar()
	}
	return string(l.input[start : l.position-1])
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()

		line, col := l.line, l.column

		switch l.current {
		case 0:
			return token{Type: tokenEOF, Line: line, Column: col}
		case ';':
			l.skipComment()
			continue
		case '(':
			l.readChar()
			return token{Type: tokenLParen, Value: "(", Line: line, Column: col}
		case ')':
			l.readChar()
			return token{Type: tokenRParen, Value: ")", Line: line, Column: col}
		case '"':
			str, err := l.readString()
			if err != nil {
				l.errors = append(l.errors, err.Error())
				return token{Type: tokenEOF, Line: line, Column: col}
			}
			return token{Type: tokenString, Value: str, Line: line, Column: col}
		default:
			if unicode.IsDigit(l.current) || ((l.current == '+' || l.current == '-') && unicode.IsDigit(l.peekChar())) {
				integer := l.readInteger()
				return token{Type: tokenInteger, Value: integer, Line: line, Column: col}
			}
			if isSymbolChar(l.current) {
				symbol := l.readSymbol()
				return token{Type: tokenSymbol, Value: symbol, Line: line, Column: col}
			}
			// Unknown character is a syntax error
			l.errors = append(l.errors, fmt.Sprintf("%d:%d: unexpected character '%c'", line, col, l.current))
			return token{Type: tokenEOF, Line: line, Column: col}
		}
	}
}

// Symbols may carry operator punctuation so that Sophia operators read
// naturally, e.g. (+ a b) or (post++ i).
func isSymbolChar(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '-', '_', '+', '*', '/', '<', '>', '=', '!', '&', '|', '.', '$', '[', ']', ':', '%', '#':
		return true
	}
	return false
}
