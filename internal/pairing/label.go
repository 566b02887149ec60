package pairing

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/dryscan/dryscan/internal/unit"
)

// Label computes the extractor-defined canonical label for a unit, per
// spec.md §4.2: CLASS labels by file path, FUNCTION labels by
// name-plus-arity signature, BLOCK labels by a whitespace/comment-blind
// content hash.
func Label(u *unit.Unit) string {
	switch u.Kind {
	case unit.Class:
		return u.FilePath
	case unit.Function:
		return functionLabel(simpleName(u.Name), u.Code)
	case unit.Block:
		return blockLabel(u.Code)
	default:
		return u.Name
	}
}

// functionLabel builds "{name}(arity:{N})" where N is the parameter count
// parsed from the text preceding the first "{" in code.
func functionLabel(name, code string) string {
	return name + "(arity:" + arityOf(code) + ")"
}

// simpleName strips any "Enclosing.Class." qualifier, since the function
// label uses the bare method name even for nested functions.
func simpleName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

var commentPattern = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)

func arityOf(code string) string {
	brace := strings.IndexByte(code, '{')
	header := code
	if brace >= 0 {
		header = code[:brace]
	}
	header = commentPattern.ReplaceAllString(header, "")

	open := strings.IndexByte(header, '(')
	if open < 0 {
		return "0"
	}
	depth := 0
	var params strings.Builder
	for i := open; i < len(header); i++ {
		c := header[i]
		switch c {
		case '(':
			depth++
			if depth == 1 {
				continue
			}
		case ')':
			depth--
			if depth == 0 {
				goto done
			}
		}
		if depth >= 1 {
			params.WriteByte(c)
		}
	}
done:
	paramStr := strings.TrimSpace(params.String())
	if paramStr == "" {
		return "0"
	}
	n := 1
	depth = 0
	for _, r := range paramStr {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				n++
			}
		}
	}
	return itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// blockLabel hashes code after stripping comments and collapsing all
// whitespace, so reformatted-but-identical blocks hash alike.
func blockLabel(code string) string {
	stripped := commentPattern.ReplaceAllString(code, "")
	normalized := whitespacePattern.ReplaceAllString(strings.TrimSpace(stripped), "")
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
