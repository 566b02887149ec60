package extract

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsjava "github.com/smacker/go-tree-sitter/java"

	"github.com/dryscan/dryscan/internal/unit"
)

// JavaExtractor implements Extractor for Java source, the reference
// language target of spec.md §4.2.
type JavaExtractor struct {
	extensions []string
	lang       *sitter.Language
}

// NewJavaExtractor constructs the Java extractor.
func NewJavaExtractor() *JavaExtractor {
	return &JavaExtractor{
		extensions: []string{".java"},
		lang:       tsjava.GetLanguage(),
	}
}

func (j *JavaExtractor) Supports(path string) bool {
	for _, ext := range j.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

var (
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentPattern  = regexp.MustCompile(`//[^\n]*`)
	getterSetterPattern = regexp.MustCompile(`^(get|is|set)[A-Z]`)
)

func stripComments(code string) string {
	code = blockCommentPattern.ReplaceAllString(code, "")
	code = lineCommentPattern.ReplaceAllString(code, "")
	return code
}

// Extract parses Java source and yields CLASS/FUNCTION/BLOCK units.
func (j *JavaExtractor) Extract(path string, source []byte, opts Options) ([]*unit.Unit, error) {
	root, err := parseTree(context.Background(), source, j.lang)
	if err != nil {
		return nil, err
	}

	ex := &javaExtraction{
		path:   path,
		source: source,
		opts:   opts,
	}
	root.walk(func(n *node) bool {
		if n.Type == "class_declaration" {
			ex.extractClass(n, "")
			return false // nested classes are handled recursively by extractClass
		}
		return true
	})
	return ex.units, nil
}

type javaExtraction struct {
	path   string
	source []byte
	opts   Options
	units  []*unit.Unit
}

func (ex *javaExtraction) methodNameText(n *node) string {
	if id := n.childOfType("identifier"); id != nil {
		return id.content(ex.source)
	}
	return ""
}

func classNameText(ex *javaExtraction, n *node) string {
	if id := n.childOfType("identifier"); id != nil {
		return id.content(ex.source)
	}
	return ""
}

// methodBody returns the block (or constructor_body) node holding a
// method/constructor's statements, or nil for abstract/interface methods.
func methodBody(n *node) *node {
	for _, c := range n.Children {
		if c.Type == "block" || c.Type == "constructor_body" {
			return c
		}
	}
	return nil
}

func isTrivialAccessorName(name string) bool {
	return getterSetterPattern.MatchString(name)
}

// isDTOBody reports whether a class body contains only field declarations
// and trivial accessor/mutator methods (annotations/comments/punctuation
// allowed).
func isDTOBody(ex *javaExtraction, body *node) bool {
	for _, c := range body.Children {
		switch c.Type {
		case "field_declaration", "line_comment", "block_comment",
			"marker_annotation", "annotation", "{", "}", ";":
			continue
		case "method_declaration":
			if !isTrivialAccessorName(ex.methodNameText(c)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// extractClass processes one class_declaration node. qualifiedPrefix is
// the enclosing class's qualified name ("" at top level), used to build
// nested-class qualified names.
func (ex *javaExtraction) extractClass(n *node, qualifiedPrefix string) {
	simpleName := classNameText(ex, n)
	qualifiedName := simpleName
	if qualifiedPrefix != "" {
		qualifiedName = qualifiedPrefix + "." + simpleName
	}

	body := n.childOfType("class_body")
	if body == nil {
		return
	}

	if isDTOBody(ex, body) {
		// A DTO class is skipped entirely, including its children: do not
		// recurse into nested classes or emit their members either, since
		// spec.md treats a DTO as fully trivial content.
		return
	}

	classUnit := ex.buildClassUnit(n, qualifiedName)
	var parentID string
	if classUnit != nil && classUnit.Lines() >= ex.opts.MinLines {
		ex.units = append(ex.units, classUnit)
		parentID = classUnit.ID
	}

	for _, c := range body.Children {
		switch c.Type {
		case "method_declaration", "constructor_declaration":
			ex.extractFunction(c, qualifiedName, parentID)
		case "class_declaration":
			ex.extractClass(c, qualifiedName)
		}
	}
}

// buildClassUnit renders the class's code with every method/constructor
// body replaced by " { }" so class-level similarity reflects structural
// shape, not method implementations.
func (ex *javaExtraction) buildClassUnit(n *node, qualifiedName string) *unit.Unit {
	var bodySpans [][2]uint32
	n.walk(func(c *node) bool {
		if c.Type == "method_declaration" || c.Type == "constructor_declaration" {
			if b := methodBody(c); b != nil {
				bodySpans = append(bodySpans, [2]uint32{b.StartByte, b.EndByte})
			}
		}
		return true
	})

	code := spliceSpans(ex.source, n.StartByte, n.EndByte, bodySpans, " { }")
	code = stripComments(code)

	id := unit.ID(unit.Class, ex.path+":"+qualifiedName, n.StartLine, n.EndLine)
	return &unit.Unit{
		ID:        id,
		Name:      simpleNameOf(qualifiedName),
		FilePath:  ex.path,
		Kind:      unit.Class,
		StartLine: n.StartLine,
		EndLine:   n.EndLine,
		Code:      code,
	}
}

func simpleNameOf(qualifiedName string) string {
	idx := strings.LastIndexByte(qualifiedName, '.')
	if idx < 0 {
		return qualifiedName
	}
	return qualifiedName[idx+1:]
}

// extractFunction processes one method/constructor node. classQualified is
// the enclosing class's qualified name; classParentID is the enclosing
// CLASS unit's id (empty if the class was skipped/not emitted, e.g. too
// short — the function still exists but has no parent).
func (ex *javaExtraction) extractFunction(n *node, classQualified, classParentID string) {
	simpleName := ex.methodNameText(n)
	if isTrivialAccessorName(simpleName) {
		return // trivial getter/setter, skipped along with its blocks
	}

	qualifiedName := classQualified + "." + simpleName

	code := stripComments(n.content(ex.source))
	id := unit.ID(unit.Function, ex.path+":"+qualifiedName, n.StartLine, n.EndLine)

	fn := &unit.Unit{
		ID:        id,
		Name:      qualifiedName,
		FilePath:  ex.path,
		Kind:      unit.Function,
		StartLine: n.StartLine,
		EndLine:   n.EndLine,
		Code:      code,
		ParentID:  classParentID,
	}

	if fn.Lines() >= ex.opts.MinLines {
		ex.units = append(ex.units, fn)
	} else {
		return // too short to index; its blocks are not indexed either
	}

	body := methodBody(n)
	if body == nil {
		return
	}
	minBlockLines := ex.opts.effectiveBlockMinLines()
	for _, c := range body.Children {
		c.walk(func(b *node) bool {
			if b.Type != "block" {
				return true
			}
			lines := b.EndLine - b.StartLine + 1
			if lines < minBlockLines {
				return true
			}
			ex.units = append(ex.units, ex.buildBlockUnit(b, fn))
			return true
		})
	}
}

func (ex *javaExtraction) buildBlockUnit(n *node, parent *unit.Unit) *unit.Unit {
	code := stripComments(n.content(ex.source))
	id := unit.ID(unit.Block, ex.path+":"+parent.Name+":"+itoaBlock(n.StartByte), n.StartLine, n.EndLine)
	return &unit.Unit{
		ID:        id,
		Name:      parent.Name + "$block",
		FilePath:  ex.path,
		Kind:      unit.Block,
		StartLine: n.StartLine,
		EndLine:   n.EndLine,
		Code:      code,
		ParentID:  parent.ID,
	}
}

func itoaBlock(v uint32) string {
	if v == 0 {
		return "0"
	}
	var b [10]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}

// spliceSpans returns source[start:end] with every byte range in spans
// (sorted ascending, relative to the whole source, non-overlapping)
// replaced by replacement.
func spliceSpans(source []byte, start, end uint32, spans [][2]uint32, replacement string) string {
	var out strings.Builder
	cursor := start
	for _, span := range spans {
		if span[0] < cursor || span[1] > end {
			continue
		}
		out.Write(source[cursor:span[0]])
		out.WriteString(replacement)
		cursor = span[1]
	}
	out.Write(source[cursor:end])
	return out.String()
}
