package vocab

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/qlgo/pkg/rdf"
)

// TermWord renders term as the string a term store resolves through the
// vocabulary (§4.6): the same IRI/blank-node/literal syntax ParseWord
// accepts, grounded on the grammar internal/nquads.Parser parses. Unlike
// rdf.Term.String(), literal values are backslash-escaped so a value
// containing a quote or control character still round-trips.
func TermWord(term rdf.Term) (string, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return "<" + t.IRI + ">", nil
	case *rdf.BlankNode:
		return "_:" + t.ID, nil
	case *rdf.Literal:
		var b strings.Builder
		b.WriteByte('"')
		b.WriteString(escapeLiteral(t.Value))
		b.WriteByte('"')
		switch {
		case t.Language != "":
			b.WriteByte('@')
			b.WriteString(t.Language)
		case t.Datatype != nil:
			b.WriteString("^^<")
			b.WriteString(t.Datatype.IRI)
			b.WriteByte('>')
		}
		return b.String(), nil
	case *rdf.DefaultGraph:
		return "DEFAULT", nil
	default:
		return "", fmt.Errorf("vocab: unsupported term type %T", term)
	}
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseWord parses a vocabulary word back into the rdf.Term it encodes.
// It follows the same per-character dispatch as
// internal/nquads.Parser.parseTerm (IRI / blank node / literal), adapted
// to the escaped word format TermWord produces, plus the DefaultGraph
// sentinel TermWord writes for the graph position.
func ParseWord(word string) (rdf.Term, error) {
	if word == "DEFAULT" {
		return rdf.NewDefaultGraph(), nil
	}
	if len(word) == 0 {
		return nil, fmt.Errorf("vocab: empty word")
	}

	switch word[0] {
	case '<':
		if !strings.HasSuffix(word, ">") {
			return nil, fmt.Errorf("vocab: unterminated IRI in word %q", word)
		}
		return rdf.NewNamedNode(word[1 : len(word)-1]), nil

	case '_':
		if !strings.HasPrefix(word, "_:") {
			return nil, fmt.Errorf("vocab: malformed blank node in word %q", word)
		}
		return rdf.NewBlankNode(word[2:]), nil

	case '"':
		return parseLiteralWord(word)

	default:
		return nil, fmt.Errorf("vocab: unrecognized word %q", word)
	}
}

func parseLiteralWord(word string) (rdf.Term, error) {
	var value strings.Builder
	i := 1
	for i < len(word) {
		ch := word[i]
		if ch == '"' {
			break
		}
		if ch == '\\' && i+1 < len(word) {
			i++
			switch word[i] {
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
				value.WriteByte(word[i])
			}
			i++
			continue
		}
		value.WriteByte(ch)
		i++
	}
	if i >= len(word) {
		return nil, fmt.Errorf("vocab: unclosed literal in word %q", word)
	}

	rest := word[i+1:]
	switch {
	case strings.HasPrefix(rest, "@"):
		return rdf.NewLiteralWithLanguage(value.String(), rest[1:]), nil
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		return rdf.NewLiteralWithDatatype(value.String(), rdf.NewNamedNode(rest[3:len(rest)-1])), nil
	case rest == "":
		return rdf.NewLiteral(value.String()), nil
	default:
		return nil, fmt.Errorf("vocab: malformed literal suffix in word %q", word)
	}
}
