// Package bindgen turns the combined C header emitted by the kernel
// compilation step into Go declarations for the exported kernel entry
// points, closing the loop between the build step and callable symbols.
package bindgen

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"
)

// Param is one parameter of an exported kernel function.
type Param struct {
	Type string // C type, e.g. "float *" or "int32_t"
	Name string // may be empty for unnamed parameters
}

// Declaration describes one exported kernel function prototype.
type Declaration struct {
	Name   string
	Result string // C result type, "void" for none
	Params []Param
}

// Parse extracts every `extern` function prototype from header content.
// Preprocessor lines and the `extern "C"` linkage wrapper are skipped; the
// remaining prototypes are expected to be one per line, the shape the kernel
// compiler emits.
func Parse(input []byte) ([]*Declaration, error) {
	var declarations []*Declaration
	for _, line := range strings.Split(string(input), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "extern") || strings.HasPrefix(line, `extern "C"`) {
			continue
		}
		if !strings.HasSuffix(line, ";") {
			continue
		}
		declaration, err := parsePrototype([]byte(strings.TrimPrefix(line, "extern")))
		if err != nil {
			return nil, fmt.Errorf("prototype %q: %w", line, err)
		}
		declarations = append(declarations, declaration)
	}
	return declarations, nil
}

// parsePrototype parses `TYPE name(param, ...);` where TYPE and each param
// type are identifier sequences with optional trailing asterisks.
func parsePrototype(input []byte) (*Declaration, error) {
	cursor := parsly.NewCursor("", input, 0)

	// Everything up to the opening parenthesis is the result type followed
	// by the function name.
	words, stars, err := matchTypeWords(cursor)
	if err != nil {
		return nil, err
	}
	if len(words) < 2 {
		return nil, fmt.Errorf("expected result type and function name")
	}
	if stars > 0 {
		return nil, fmt.Errorf("pointer results are not supported")
	}
	declaration := &Declaration{
		Name:   words[len(words)-1],
		Result: strings.Join(words[:len(words)-1], " "),
	}

	matched := cursor.MatchAfterOptional(whitespaceToken, openParenToken)
	if matched.Code != openParenToken.Code {
		return nil, cursor.NewError(openParenToken)
	}

	for {
		matched = cursor.MatchAfterOptional(whitespaceToken, closeParenToken)
		if matched.Code == closeParenToken.Code {
			break
		}
		param, err := matchParam(cursor)
		if err != nil {
			return nil, err
		}
		declaration.Params = append(declaration.Params, param)

		matched = cursor.MatchAfterOptional(whitespaceToken, commaToken, closeParenToken)
		switch matched.Code {
		case commaToken.Code:
		case closeParenToken.Code:
			return declaration, expectSemicolon(cursor)
		default:
			return nil, cursor.NewError(closeParenToken)
		}
	}
	return declaration, expectSemicolon(cursor)
}

// matchTypeWords consumes identifiers and asterisks until neither matches.
func matchTypeWords(cursor *parsly.Cursor) ([]string, int, error) {
	var words []string
	stars := 0
	for {
		matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken, asteriskToken)
		switch matched.Code {
		case identifierToken.Code:
			words = append(words, matched.Text(cursor))
		case asteriskToken.Code:
			stars++
		default:
			if len(words) == 0 {
				return nil, 0, cursor.NewError(identifierToken)
			}
			return words, stars, nil
		}
	}
}

// matchParam parses one parameter: an identifier sequence with optional
// asterisks; the final identifier is the parameter name when at least two
// identifiers are present.
func matchParam(cursor *parsly.Cursor) (Param, error) {
	words, stars, err := matchTypeWords(cursor)
	if err != nil {
		return Param{}, err
	}
	pointer := ""
	if stars > 0 {
		pointer = " " + strings.Repeat("*", stars)
	}
	if len(words) == 1 {
		// Unnamed parameter, e.g. `void` or a bare type.
		return Param{Type: words[0] + pointer}, nil
	}
	return Param{
		Type: strings.Join(words[:len(words)-1], " ") + pointer,
		Name: words[len(words)-1],
	}, nil
}

func expectSemicolon(cursor *parsly.Cursor) error {
	matched := cursor.MatchAfterOptional(whitespaceToken, semicolonToken)
	if matched.Code != semicolonToken.Code {
		return cursor.NewError(semicolonToken)
	}
	return nil
}
