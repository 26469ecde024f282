package lsp

import (
	"strings"
	"testing"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

func hoverAt(t *testing.T, line string, col int) *protocol.Hover {
	t.Helper()
	resolver := NewHoverResolver(newTestStore(t), zap.NewNop())
	doc := testDoc(line)
	return resolver.Hover(doc, protocol.Position{Line: 0, Character: uint32(col)})
}

func TestHover_Instruction(t *testing.T) {
	hover := hoverAt(t, "git url: 'https://example.com/repo.git'", 1)

	if hover == nil {
		t.Fatal("expected hover for git")
	}
	value := hover.Contents.Value
	for _, want := range []string{"### git", "*Pipeline Step*", "`url` *string, required*", "[View Documentation]"} {
		if !strings.Contains(value, want) {
			t.Errorf("hover missing %q:\n%s", want, value)
		}
	}
}

func TestHover_InstructionCaseInsensitive(t *testing.T) {
	hover := hoverAt(t, "GIT url: 'x'", 1)

	if hover == nil {
		t.Fatal("expected hover for GIT")
	}
	if !strings.Contains(hover.Contents.Value, "### git") {
		t.Errorf("hover should render the canonical name:\n%s", hover.Contents.Value)
	}
}

func TestHover_EnumParameterValues(t *testing.T) {
	hover := hoverAt(t, "timeout(time: 5, unit: 'MINUTES')", 2)

	if hover == nil {
		t.Fatal("expected hover for timeout")
	}
	value := hover.Contents.Value
	if !strings.Contains(value, "`NANOSECONDS`") || !strings.Contains(value, "`DAYS`") {
		t.Errorf("hover should list enum values:\n%s", value)
	}
	if !strings.Contains(value, "default `MINUTES`") {
		t.Errorf("hover should show the default:\n%s", value)
	}
}

func TestHover_Section(t *testing.T) {
	hover := hoverAt(t, "    post {", 5)

	if hover == nil {
		t.Fatal("expected hover for post")
	}
	value := hover.Contents.Value
	if !strings.Contains(value, "### post") {
		t.Errorf("hover missing heading:\n%s", value)
	}
	if !strings.Contains(value, "**Allowed**") {
		t.Errorf("section hover should list allowed inner keywords:\n%s", value)
	}
}

func TestHover_EnvironmentVariable(t *testing.T) {
	hover := hoverAt(t, "echo env.BUILD_NUMBER", 12)

	if hover == nil {
		t.Fatal("expected hover for BUILD_NUMBER")
	}
	value := hover.Contents.Value
	if !strings.Contains(value, "### BUILD_NUMBER") || !strings.Contains(value, "*Environment Variable*") {
		t.Errorf("unexpected env var hover:\n%s", value)
	}
}

func TestHover_InstructionBeatsDirective(t *testing.T) {
	// "input" exists as both a step and a stage directive.
	hover := hoverAt(t, "input message: 'Deploy?'", 2)

	if hover == nil {
		t.Fatal("expected hover for input")
	}
	if !strings.Contains(hover.Contents.Value, "*Pipeline Step*") {
		t.Errorf("step documentation should win the collision:\n%s", hover.Contents.Value)
	}
}

func TestHover_Misses(t *testing.T) {
	tests := []struct {
		name string
		line string
		col  int
	}{
		{"unknown word", "frobnicate the build", 2},
		{"whitespace", "sh  'make'", 3},
		{"inside string literal word", "echo 'gitgitgit'", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if hover := hoverAt(t, tt.line, tt.col); hover != nil {
				t.Errorf("expected no hover, got:\n%s", hover.Contents.Value)
			}
		})
	}
}

func TestHover_PositionPastEnd(t *testing.T) {
	resolver := NewHoverResolver(newTestStore(t), zap.NewNop())
	doc := testDoc("echo 'hi'")

	if hover := resolver.Hover(doc, protocol.Position{Line: 5, Character: 0}); hover != nil {
		t.Error("positions past the last line should hover nothing")
	}
}
