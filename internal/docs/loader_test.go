package docs

import (
	"errors"
	"strings"
	"testing"
)

const testDocument = `{
  "date": "2026-01-15T10:00:00",
  "plugins": [
    { "name": "Pipeline: Basic Steps", "url": "https://example.test/basic" }
  ],
  "instructions": [
    {
      "name": "git",
      "description": "Clone a Git repository.",
      "url": "https://example.test/git",
      "parameters": [
        { "name": "url", "type": "string", "required": true },
        { "name": "branch", "type": "string", "required": false, "default": "master" },
        { "name": "poll", "type": "boolean", "required": false }
      ]
    },
    {
      "name": "echo",
      "description": "Print a message.",
      "url": "https://example.test/echo",
      "parameters": [
        { "name": "message", "type": "string", "required": true }
      ]
    },
    {
      "name": "input",
      "description": "Wait for interactive input.",
      "url": "https://example.test/input",
      "parameters": []
    }
  ],
  "sections": [
    {
      "name": "post",
      "description": "Post-processing block.",
      "innerInstructions": ["always", "failure", "success"]
    },
    { "name": "stages", "description": "Stage container.", "innerInstructions": ["stage"] }
  ],
  "directives": [
    { "name": "environment", "description": "Environment variables." },
    { "name": "input", "description": "Stage input directive." }
  ],
  "environmentVariables": [
    { "name": "BUILD_NUMBER", "description": "The current build number." },
    { "name": "WORKSPACE", "description": "Workspace path." }
  ]
}`

func TestLoad_RoundTrip(t *testing.T) {
	ds, err := Load([]byte(testDocument))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	in, ok := ds.Instruction("git")
	if !ok {
		t.Fatal("expected git instruction")
	}
	if in.Description != "Clone a Git repository." {
		t.Errorf("description changed on load: %q", in.Description)
	}
	if in.URL != "https://example.test/git" {
		t.Errorf("url changed on load: %q", in.URL)
	}
	if len(in.Parameters) != 3 {
		t.Fatalf("expected 3 parameters, got %d", len(in.Parameters))
	}
	if in.Parameters[0].Name != "url" || !in.Parameters[0].Required {
		t.Errorf("first parameter wrong: %+v", in.Parameters[0])
	}
	if in.Parameters[1].Default != "master" {
		t.Errorf("default hint lost: %+v", in.Parameters[1])
	}
}

func TestLoad_MissingKeyReported(t *testing.T) {
	missingSections := `{
	  "date": "2026-01-15",
	  "plugins": [],
	  "instructions": [],
	  "directives": [],
	  "environmentVariables": []
	}`

	_, err := Load([]byte(missingSections))
	if err == nil {
		t.Fatal("expected error for missing sections key")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	if loadErr.Key != "sections" {
		t.Errorf("expected key %q, got %q", "sections", loadErr.Key)
	}
}

func TestLoad_MalformedKeyReported(t *testing.T) {
	badInstructions := strings.Replace(testDocument, `"instructions": [`, `"instructions": [ {"name": 12}, `, 1)

	_, err := Load([]byte(badInstructions))
	if err == nil {
		t.Fatal("expected error for malformed instruction")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	if loadErr.Key != "instructions" {
		t.Errorf("expected key %q, got %q", "instructions", loadErr.Key)
	}
}

func TestLoad_NotJSON(t *testing.T) {
	if _, err := Load([]byte("pipeline {")); err == nil {
		t.Fatal("expected error for non-JSON input")
	}
}

func TestDataset_CaseInsensitiveLookup(t *testing.T) {
	ds, err := Load([]byte(testDocument))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, name := range []string{"git", "GIT", "Git"} {
		in, ok := ds.Instruction(name)
		if !ok {
			t.Errorf("lookup %q failed", name)
			continue
		}
		if in.Name != "git" {
			t.Errorf("lookup %q: original spelling lost, got %q", name, in.Name)
		}
	}

	if _, ok := ds.EnvVar("build_number"); !ok {
		t.Error("env var lookup should tolerate case")
	}
}

func TestDataset_DeclarationOrder(t *testing.T) {
	ds, err := Load([]byte(testDocument))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"git", "echo", "input"}
	got := ds.Instructions()
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("instruction %d: expected %q, got %q", i, name, got[i].Name)
		}
	}
}

func TestDataset_PostConditionsFromSection(t *testing.T) {
	ds, err := Load([]byte(testDocument))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	conditions := ds.PostConditions()
	if len(conditions) != 3 {
		t.Fatalf("expected 3 post conditions from post section, got %d", len(conditions))
	}
	if _, ok := ds.PostCondition("failure"); !ok {
		t.Error("expected failure post condition")
	}
	if _, ok := ds.PostCondition("cleanup"); ok {
		t.Error("cleanup is not in this dataset's post section")
	}
}

func TestDataset_PostConditionsFallback(t *testing.T) {
	noPost := strings.Replace(testDocument,
		`"innerInstructions": ["always", "failure", "success"]`,
		`"innerInstructions": []`, 1)

	ds, err := Load([]byte(noPost))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(ds.PostConditions()) != len(fallbackPostConditions) {
		t.Fatalf("expected fallback set of %d, got %d",
			len(fallbackPostConditions), len(ds.PostConditions()))
	}
	pc, ok := ds.PostCondition("cleanup")
	if !ok {
		t.Fatal("expected cleanup in fallback post conditions")
	}
	if pc.Description == "" {
		t.Error("fallback post conditions should carry descriptions")
	}
}

func TestLoad_DuplicateKeepsFirst(t *testing.T) {
	dup := strings.Replace(testDocument, `"environmentVariables": [
    { "name": "BUILD_NUMBER", "description": "The current build number." },`,
		`"environmentVariables": [
    { "name": "BUILD_NUMBER", "description": "The current build number." },
    { "name": "BUILD_NUMBER", "description": "duplicate" },`, 1)

	ds, err := Load([]byte(dup))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ev, ok := ds.EnvVar("BUILD_NUMBER")
	if !ok {
		t.Fatal("expected BUILD_NUMBER")
	}
	if ev.Description != "The current build number." {
		t.Errorf("duplicate should keep first entry, got %q", ev.Description)
	}
	if len(ds.EnvVars()) != 2 {
		t.Errorf("expected 2 env vars after dedup, got %d", len(ds.EnvVars()))
	}
}

func TestLoadDefault(t *testing.T) {
	ds, err := LoadDefault()
	if err != nil {
		t.Fatalf("bundled dataset failed to load: %v", err)
	}

	if _, ok := ds.Instruction("git"); !ok {
		t.Error("bundled dataset should document git")
	}
	if _, ok := ds.EnvVar("BUILD_NUMBER"); !ok {
		t.Error("bundled dataset should document BUILD_NUMBER")
	}
	if _, ok := ds.Section("post"); !ok {
		t.Error("bundled dataset should document the post section")
	}
}
