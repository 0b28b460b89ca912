// Package shell turns raw input lines into argument vectors.
//
// Processing happens in three steps, each of which operates on the output of
// the previous one:
//
// 1. The line is broken into tokens on a delimiter. Single and double quotes
// group characters (including the delimiter) into a single token and are
// removed from the output. The two quote kinds are independent: a quote of one
// kind inside the other kind's quoting is a literal character.
//
// 2. If the first token names an alias, the alias value is tokenized and
// spliced in place of that token.
//
// 3. Tokens that consist of a variable reference ($NAME) are replaced with the
// value of the variable.
package shell

import (
	"errors"
	"strings"
)

const (
	// DefaultDelimiter separates tokens on the command line.
	DefaultDelimiter = ' '

	// PipeToken separates the two stages of a pipeline.
	PipeToken = "|"

	// BackgroundToken at the end of a command runs it as a background job.
	BackgroundToken = "&"

	variableMarker = "$"
)

// ErrSyntax is returned when a line ends inside a quoted section.
var ErrSyntax = errors.New("bad syntax: unmatched quotation marks")

// Tokenize splits line on delimiter, honoring single and double quotes.
//
// Runs of delimiters never produce empty tokens. If the line ends while a
// quote is still open the whole line is rejected: no tokens are returned and
// the error is ErrSyntax.
func Tokenize(line string, delimiter rune) ([]string, error) {
	var (
		tokens       []string
		current      strings.Builder
		doubleQuoted bool
		singleQuoted bool
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, ch := range line {
		switch {
		case ch == '"' && !singleQuoted:
			doubleQuoted = !doubleQuoted
		case ch == '\'' && !doubleQuoted:
			singleQuoted = !singleQuoted
		case ch == delimiter && !doubleQuoted && !singleQuoted:
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()

	if doubleQuoted || singleQuoted {
		return nil, ErrSyntax
	}

	return tokens, nil
}

// Quote returns token in a form that Tokenize reads back as a single token.
func Quote(token string, delimiter rune) string {
	if !strings.ContainsAny(token, `"'`+string(delimiter)) {
		return token
	}

	switch {
	case !strings.ContainsRune(token, '"'):
		return `"` + token + `"`
	case !strings.ContainsRune(token, '\''):
		return "'" + token + "'"
	}

	// Both kinds of quote are present, quote each special character on its own;
	// adjacent quoted sections join into one token.
	var out strings.Builder
	for _, ch := range token {
		switch ch {
		case '"':
			out.WriteString(`'"'`)
		case '\'', delimiter:
			out.WriteRune('"')
			out.WriteRune(ch)
			out.WriteRune('"')
		default:
			out.WriteRune(ch)
		}
	}
	return out.String()
}

// Join is the inverse of Tokenize.
func Join(tokens []string, delimiter rune) string {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = Quote(tok, delimiter)
	}
	return strings.Join(quoted, string(delimiter))
}

// ExpandAlias replaces the first token with the tokenized alias value if the
// first token names an alias. Alias values are not expanded recursively.
func ExpandAlias(tokens []string, aliases Aliases) ([]string, error) {
	if len(tokens) == 0 {
		return tokens, nil
	}

	value, ok := aliases.Get(tokens[0])
	if !ok {
		return tokens, nil
	}

	replacement, err := Tokenize(value, DefaultDelimiter)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(replacement)+len(tokens)-1)
	out = append(out, replacement...)
	out = append(out, tokens[1:]...)
	return out, nil
}

// ExpandVariables replaces every token of the form $NAME with the value
// lookup returns for NAME. Only whole tokens are expanded; "a$B" and "$" are
// left alone.
func ExpandVariables(tokens []string, lookup func(string) string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if strings.HasPrefix(tok, variableMarker) && len(tok) > len(variableMarker) {
			tok = lookup(strings.TrimPrefix(tok, variableMarker))
		}
		out[i] = tok
	}
	return out
}

// SplitPipeline splits tokens at the first PipeToken. Any later PipeTokens are
// part of the second command's arguments. ok is false if there is no pipe.
func SplitPipeline(tokens []string) (first, second []string, ok bool) {
	for i, tok := range tokens {
		if tok == PipeToken {
			return tokens[:i], tokens[i+1:], true
		}
	}
	return tokens, nil, false
}

// TrimBackground removes a trailing BackgroundToken, reporting whether it was
// present.
func TrimBackground(tokens []string) ([]string, bool) {
	if n := len(tokens); n > 0 && tokens[n-1] == BackgroundToken {
		return tokens[:n-1], true
	}
	return tokens, false
}
