package docs

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var datasetSchema []byte

//go:embed data.json
var defaultData []byte

// fallbackPostConditions is used when the dataset's post section carries no
// inner instruction list.
var fallbackPostConditions = []string{
	"always", "changed", "fixed", "regression", "aborted",
	"failure", "success", "unstable", "unsuccessful", "cleanup",
}

var postConditionDescriptions = map[string]string{
	"always":       "Run regardless of the completion status of the pipeline or stage.",
	"changed":      "Run only if the current run has a different completion status from its previous run.",
	"fixed":        "Run only if the current run is successful and the previous run failed or was unstable.",
	"regression":   "Run only if the current run's status is failure, unstable, or aborted and the previous run was successful.",
	"aborted":      "Run only if the current run was manually aborted.",
	"failure":      "Run only if the current run failed.",
	"success":      "Run only if the current run was successful.",
	"unstable":     "Run only if the current run is unstable, usually caused by test failures.",
	"unsuccessful": "Run only if the current run was not successful.",
	"cleanup":      "Run after every other post condition has been evaluated.",
}

// LoadError reports a missing or malformed key in a dataset document.
type LoadError struct {
	Key    string
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("documentation data: key %q: %s", e.Key, e.Reason)
}

// Dataset is an immutable, indexed view of the scraped Jenkins documentation.
// All lookups are case-insensitive; entries keep their original spelling.
type Dataset struct {
	date    string
	plugins []Plugin

	instructions   []Instruction
	sections       []Section
	directives     []Directive
	envVars        []EnvironmentVariable
	postConditions []PostCondition

	instructionIndex map[string]*Instruction
	sectionIndex     map[string]*Section
	directiveIndex   map[string]*Directive
	envVarIndex      map[string]*EnvironmentVariable
	postIndex        map[string]*PostCondition
}

// Load parses and validates a dataset document. It returns a *LoadError naming
// the offending top-level key when the document does not match the schema.
func Load(raw []byte) (*Dataset, error) {
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &LoadError{Key: "(document)", Reason: err.Error()}
	}

	return build(&doc), nil
}

// LoadDefault builds a dataset from the documentation bundled with the binary.
func LoadDefault() (*Dataset, error) {
	return Load(defaultData)
}

func validateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(datasetSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return &LoadError{Key: "(document)", Reason: err.Error()}
	}
	if result.Valid() {
		return nil
	}

	// Report the most specific error: missing required keys first.
	first := result.Errors()[0]
	for _, resErr := range result.Errors() {
		if resErr.Type() == "required" {
			first = resErr
			break
		}
	}

	key := first.Field()
	if first.Type() == "required" {
		if prop, ok := first.Details()["property"].(string); ok {
			key = prop
		}
	}
	return &LoadError{Key: topLevelKey(key), Reason: first.Description()}
}

// topLevelKey trims a JSON field path like "instructions.3.parameters.0.type"
// down to its top-level key for error reporting.
func topLevelKey(field string) string {
	if field == "(root)" {
		return "(document)"
	}
	if i := strings.IndexByte(field, '.'); i > 0 {
		return field[:i]
	}
	return field
}

func build(doc *document) *Dataset {
	ds := &Dataset{
		date:    doc.Date,
		plugins: doc.Plugins,
	}

	// Duplicates within one collection keep the first occurrence so that
	// declaration order stays authoritative. Slices are finalized before the
	// indexes are built: index pointers must alias the stored entries.
	seen := map[string]bool{}
	for _, in := range doc.Instructions {
		if key := strings.ToLower(in.Name); !seen[key] {
			seen[key] = true
			ds.instructions = append(ds.instructions, in)
		}
	}
	seen = map[string]bool{}
	for _, sec := range doc.Sections {
		if key := strings.ToLower(sec.Name); !seen[key] {
			seen[key] = true
			ds.sections = append(ds.sections, sec)
		}
	}
	seen = map[string]bool{}
	for _, dir := range doc.Directives {
		if key := strings.ToLower(dir.Name); !seen[key] {
			seen[key] = true
			ds.directives = append(ds.directives, dir)
		}
	}
	seen = map[string]bool{}
	for _, ev := range doc.EnvironmentVariables {
		if key := strings.ToLower(ev.Name); !seen[key] {
			seen[key] = true
			ds.envVars = append(ds.envVars, ev)
		}
	}

	ds.instructionIndex = make(map[string]*Instruction, len(ds.instructions))
	for i := range ds.instructions {
		ds.instructionIndex[strings.ToLower(ds.instructions[i].Name)] = &ds.instructions[i]
	}
	ds.sectionIndex = make(map[string]*Section, len(ds.sections))
	for i := range ds.sections {
		ds.sectionIndex[strings.ToLower(ds.sections[i].Name)] = &ds.sections[i]
	}
	ds.directiveIndex = make(map[string]*Directive, len(ds.directives))
	for i := range ds.directives {
		ds.directiveIndex[strings.ToLower(ds.directives[i].Name)] = &ds.directives[i]
	}
	ds.envVarIndex = make(map[string]*EnvironmentVariable, len(ds.envVars))
	for i := range ds.envVars {
		ds.envVarIndex[strings.ToLower(ds.envVars[i].Name)] = &ds.envVars[i]
	}

	ds.buildPostConditions()
	return ds
}

// buildPostConditions derives the post-condition collection from the "post"
// section's inner instruction list, falling back to the canonical set.
func (ds *Dataset) buildPostConditions() {
	names := fallbackPostConditions
	if post, ok := ds.sectionIndex["post"]; ok && len(post.InnerInstructions) > 0 {
		names = post.InnerInstructions
	}

	seen := map[string]bool{}
	for _, name := range names {
		if key := strings.ToLower(name); !seen[key] {
			seen[key] = true
			ds.postConditions = append(ds.postConditions, PostCondition{
				Name:        name,
				Description: postConditionDescriptions[key],
			})
		}
	}
	ds.postIndex = make(map[string]*PostCondition, len(ds.postConditions))
	for i := range ds.postConditions {
		ds.postIndex[strings.ToLower(ds.postConditions[i].Name)] = &ds.postConditions[i]
	}
}

// Date returns the timestamp recorded by the scraper run that produced the data.
func (ds *Dataset) Date() string { return ds.date }

// Plugins returns the plugins the dataset was scraped from.
func (ds *Dataset) Plugins() []Plugin { return ds.plugins }

// Instruction looks up a pipeline step by name.
func (ds *Dataset) Instruction(name string) (*Instruction, bool) {
	in, ok := ds.instructionIndex[strings.ToLower(name)]
	return in, ok
}

// Section looks up a structural block keyword by name.
func (ds *Dataset) Section(name string) (*Section, bool) {
	sec, ok := ds.sectionIndex[strings.ToLower(name)]
	return sec, ok
}

// Directive looks up a configuration keyword by name.
func (ds *Dataset) Directive(name string) (*Directive, bool) {
	dir, ok := ds.directiveIndex[strings.ToLower(name)]
	return dir, ok
}

// EnvVar looks up an environment variable by name.
func (ds *Dataset) EnvVar(name string) (*EnvironmentVariable, bool) {
	ev, ok := ds.envVarIndex[strings.ToLower(name)]
	return ev, ok
}

// PostCondition looks up a post{} block condition by name.
func (ds *Dataset) PostCondition(name string) (*PostCondition, bool) {
	pc, ok := ds.postIndex[strings.ToLower(name)]
	return pc, ok
}

// Instructions returns all steps in dataset declaration order.
func (ds *Dataset) Instructions() []Instruction { return ds.instructions }

// Sections returns all sections in dataset declaration order.
func (ds *Dataset) Sections() []Section { return ds.sections }

// Directives returns all directives in dataset declaration order.
func (ds *Dataset) Directives() []Directive { return ds.directives }

// EnvVars returns all environment variables in dataset declaration order.
func (ds *Dataset) EnvVars() []EnvironmentVariable { return ds.envVars }

// PostConditions returns all post conditions in dataset declaration order.
func (ds *Dataset) PostConditions() []PostCondition { return ds.postConditions }
