package lsp

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/jenkinsdoc/jenkinsfile-ls/internal/docs"
	"github.com/jenkinsdoc/jenkinsfile-ls/internal/jenkinsctx"
)

// HoverResolver finds the keyword under the cursor and renders its
// documentation entry as Markdown.
type HoverResolver struct {
	store  *docs.Store
	logger *zap.Logger
}

func NewHoverResolver(store *docs.Store, logger *zap.Logger) *HoverResolver {
	return &HoverResolver{store: store, logger: logger}
}

// Hover returns documentation for the identifier at pos, or nil when the
// dataset has nothing for it. A miss is a normal result, not an error.
func (hr *HoverResolver) Hover(doc *Document, pos protocol.Position) *protocol.Hover {
	if int(pos.Line) >= len(doc.Lines) {
		return nil
	}
	word := jenkinsctx.WordAt(doc.Lines[pos.Line], int(pos.Character))
	if word == "" {
		return nil
	}

	value := hr.lookup(word)
	if value == "" {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: value,
		},
	}
}

// lookup checks the collections in precedence order and renders the first hit.
func (hr *HoverResolver) lookup(word string) string {
	ds := hr.store.Current()

	if in, ok := ds.Instruction(word); ok {
		return renderInstruction(in)
	}
	if dir, ok := ds.Directive(word); ok {
		return renderBlock(dir.Name, "Pipeline Directive", dir.Description, dir.InnerInstructions)
	}
	if sec, ok := ds.Section(word); ok {
		return renderBlock(sec.Name, "Pipeline Section", sec.Description, sec.InnerInstructions)
	}
	if pc, ok := ds.PostCondition(word); ok {
		return renderBlock(pc.Name, "Post Condition", pc.Description, nil)
	}
	if ev, ok := ds.EnvVar(word); ok {
		return renderBlock(ev.Name, "Environment Variable", ev.Description, nil)
	}
	return ""
}

func renderInstruction(in *docs.Instruction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n*Pipeline Step*\n\n%s\n", in.Name, in.Description)

	if len(in.Parameters) > 0 {
		b.WriteString("\n**Parameters**\n\n")
		for _, param := range in.Parameters {
			requirement := "optional"
			if param.Required {
				requirement = "required"
			}
			fmt.Fprintf(&b, "- `%s` *%s, %s*", param.Name, param.Type, requirement)
			if len(param.Values) > 0 {
				fmt.Fprintf(&b, " one of `%s`", strings.Join(param.Values, "`, `"))
			}
			if param.Default != "" {
				fmt.Fprintf(&b, " (default `%s`)", param.Default)
			}
			b.WriteByte('\n')
		}
	}

	if in.URL != "" {
		fmt.Fprintf(&b, "\n[View Documentation](%s)\n", in.URL)
	}
	return b.String()
}

func renderBlock(name, category, description string, inner []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n*%s*\n\n%s\n", name, category, description)
	if len(inner) > 0 {
		fmt.Fprintf(&b, "\n**Allowed**: `%s`\n", strings.Join(inner, "`, `"))
	}
	return b.String()
}
