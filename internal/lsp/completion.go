package lsp

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/jenkinsdoc/jenkinsfile-ls/internal/docs"
	"github.com/jenkinsdoc/jenkinsfile-ls/internal/jenkinsctx"
)

// CompletionProvider turns cursor contexts into completion candidates backed
// by the documentation dataset.
type CompletionProvider struct {
	store    *docs.Store
	analyzer *jenkinsctx.Analyzer
	logger   *zap.Logger
}

func NewCompletionProvider(store *docs.Store, logger *zap.Logger) *CompletionProvider {
	return &CompletionProvider{
		store:    store,
		analyzer: jenkinsctx.NewAnalyzer(),
		logger:   logger,
	}
}

// Analyzer exposes the context analyzer for components sharing the scan.
func (cp *CompletionProvider) Analyzer() *jenkinsctx.Analyzer {
	return cp.analyzer
}

// Completions computes candidates for a position in an open document.
func (cp *CompletionProvider) Completions(doc *Document, pos protocol.Position) []protocol.CompletionItem {
	cursor := cp.analyzer.Analyze(doc.Lines, int(pos.Line), int(pos.Character))
	ds := cp.store.Current()

	cp.logger.Debug("completion context",
		zap.Stringer("kind", cursor.Kind),
		zap.String("partial", cursor.Partial),
		zap.String("receiver", cursor.Receiver),
		zap.String("function", cursor.Function))

	switch cursor.Kind {
	case jenkinsctx.KindMemberAccess:
		if strings.EqualFold(cursor.Receiver, "env") {
			return cp.envCompletions(ds, cursor.Partial)
		}
		// Other receivers are go-to-definition targets, not documentation.
		return nil
	case jenkinsctx.KindParameterList:
		return cp.parameterCompletions(ds, cursor)
	case jenkinsctx.KindBlockBody:
		if cursor.BlockKind == "post" {
			return cp.postCompletions(ds, cursor.Partial)
		}
		return cp.bareCompletions(ds, cursor.Partial)
	default:
		return cp.bareCompletions(ds, cursor.Partial)
	}
}

// bareCompletions returns every keyword matching the typed prefix. When two
// collections define the same name, the precedence instructions > directives >
// sections > post-conditions keeps only the first.
func (cp *CompletionProvider) bareCompletions(ds *docs.Dataset, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := map[string]bool{}

	for _, in := range ds.Instructions() {
		if !matchesPrefix(in.Name, prefix) || seen[strings.ToLower(in.Name)] {
			continue
		}
		seen[strings.ToLower(in.Name)] = true
		items = append(items, instructionItem(in))
	}
	for _, dir := range ds.Directives() {
		if !matchesPrefix(dir.Name, prefix) || seen[strings.ToLower(dir.Name)] {
			continue
		}
		seen[strings.ToLower(dir.Name)] = true
		items = append(items, blockItem(dir.Name, "Jenkins Directive", dir.Description, dir.InnerInstructions))
	}
	for _, sec := range ds.Sections() {
		if !matchesPrefix(sec.Name, prefix) || seen[strings.ToLower(sec.Name)] {
			continue
		}
		seen[strings.ToLower(sec.Name)] = true
		items = append(items, blockItem(sec.Name, "Jenkins Section", sec.Description, sec.InnerInstructions))
	}
	for _, pc := range ds.PostConditions() {
		if !matchesPrefix(pc.Name, prefix) || seen[strings.ToLower(pc.Name)] {
			continue
		}
		seen[strings.ToLower(pc.Name)] = true
		items = append(items, blockItem(pc.Name, "Post Condition", pc.Description, nil))
	}

	return items
}

// envCompletions returns environment variable names. The inserted text is the
// bare name since the user already typed "env.".
func (cp *CompletionProvider) envCompletions(ds *docs.Dataset, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, ev := range ds.EnvVars() {
		if !matchesPrefix(ev.Name, prefix) {
			continue
		}
		items = append(items, protocol.CompletionItem{
			Label:         ev.Name,
			Kind:          protocol.CompletionItemKindVariable,
			Detail:        "Environment Variable",
			Documentation: markdownDoc(ev.Description),
			InsertText:    ev.Name,
		})
	}
	return items
}

// postCompletions returns post{} block conditions, each inserting a block skeleton.
func (cp *CompletionProvider) postCompletions(ds *docs.Dataset, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, pc := range ds.PostConditions() {
		if !matchesPrefix(pc.Name, prefix) {
			continue
		}
		items = append(items, blockItem(pc.Name, "Post Condition", pc.Description, nil))
	}
	return items
}

// parameterCompletions returns the enclosing instruction's parameters minus
// the ones already typed, required first, then declaration order.
func (cp *CompletionProvider) parameterCompletions(ds *docs.Dataset, cursor *jenkinsctx.CursorContext) []protocol.CompletionItem {
	in, ok := ds.Instruction(cursor.Function)
	if !ok {
		return nil
	}

	typed := map[string]bool{}
	for _, name := range cursor.TypedParams {
		typed[strings.ToLower(name)] = true
	}

	var items []protocol.CompletionItem
	for i, param := range in.Parameters {
		if typed[strings.ToLower(param.Name)] {
			continue
		}
		if !matchesPrefix(param.Name, cursor.Partial) {
			continue
		}
		items = append(items, parameterItem(param, i))
	}
	return items
}

func instructionItem(in docs.Instruction) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:         in.Name,
		Kind:          protocol.CompletionItemKindFunction,
		Detail:        "Jenkins Step",
		Documentation: markdownDoc(in.Description),
	}
	if len(in.Parameters) > 0 {
		item.InsertText = in.Name + "($1)"
		item.InsertTextFormat = protocol.InsertTextFormatSnippet
	} else {
		item.InsertText = in.Name + "()"
	}
	return item
}

// blockItem builds a candidate inserting "name {\n\t$0\n}". The allowed inner
// keywords, when known, are appended to the documentation as a hint.
func blockItem(name, detail, description string, inner []string) protocol.CompletionItem {
	doc := description
	if len(inner) > 0 {
		doc += "\n\nAllowed: `" + strings.Join(inner, "`, `") + "`"
	}
	return protocol.CompletionItem{
		Label:            name,
		Kind:             protocol.CompletionItemKindKeyword,
		Detail:           detail,
		Documentation:    markdownDoc(doc),
		InsertText:       name + " {\n\t$0\n}",
		InsertTextFormat: protocol.InsertTextFormatSnippet,
	}
}

func parameterItem(param docs.Parameter, declIndex int) protocol.CompletionItem {
	requirement := "optional"
	group := 1
	if param.Required {
		requirement = "required"
		group = 0
	}

	item := protocol.CompletionItem{
		Label:            param.Name,
		Kind:             protocol.CompletionItemKindField,
		Detail:           fmt.Sprintf("%s (%s)", param.Type, requirement),
		InsertText:       parameterSnippet(param),
		InsertTextFormat: protocol.InsertTextFormatSnippet,
		SortText:         fmt.Sprintf("%d-%03d", group, declIndex),
	}
	if len(param.Values) > 0 {
		item.Documentation = markdownDoc("Values: `" + strings.Join(param.Values, "`, `") + "`")
	}
	return item
}

// parameterSnippet renders the insertion template for a parameter by type:
// quoted placeholder for strings, value placeholder for booleans and numbers,
// a choice list for enums.
func parameterSnippet(param docs.Parameter) string {
	switch param.Type {
	case docs.ParamBoolean:
		hint := param.Default
		if hint == "" {
			hint = "true"
		}
		return fmt.Sprintf("%s: ${1:%s}", param.Name, hint)
	case docs.ParamNumber:
		hint := param.Default
		if hint == "" {
			hint = "0"
		}
		return fmt.Sprintf("%s: ${1:%s}", param.Name, hint)
	case docs.ParamEnum:
		if len(param.Values) > 0 {
			return fmt.Sprintf("%s: ${1|%s|}", param.Name, strings.Join(quoteAll(param.Values), ","))
		}
		return fmt.Sprintf("%s: '${1}'", param.Name)
	default: // string
		if param.Default != "" {
			return fmt.Sprintf("%s: '${1:%s}'", param.Name, param.Default)
		}
		return fmt.Sprintf("%s: '${1}'", param.Name)
	}
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return quoted
}

func matchesPrefix(name, prefix string) bool {
	return prefix == "" || strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix))
}

func markdownDoc(value string) *protocol.MarkupContent {
	return &protocol.MarkupContent{Kind: protocol.Markdown, Value: value}
}
