package web

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlighter colours blob content with inline styles. Its output is
// already HTML-escaped.
type highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

func newHighlighter(styleName string) (*highlighter, error) {
	style, ok := styles.Registry[styleName]
	if !ok {
		return nil, fmt.Errorf("unknown highlight style %q\nUse one of: %s", styleName, strings.Join(styles.Names(), ", "))
	}

	return &highlighter{
		style:     style,
		formatter: html.New(html.PreventSurroundingPre(true), html.WithClasses(false)),
	}, nil
}

// highlight renders content using the lexer matching filename. It
// reports false when no lexer matches, leaving plain rendering to the
// caller.
func (h *highlighter) highlight(filename string, content []byte) ([]byte, bool, error) {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return nil, false, nil
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, string(content))
	if err != nil {
		return nil, false, fmt.Errorf("failed to tokenise %q: %w", filename, err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return nil, false, fmt.Errorf("failed to highlight %q: %w", filename, err)
	}

	return buf.Bytes(), true, nil
}
