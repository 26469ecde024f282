package docs

// ParamType is the type tag of an instruction parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamBoolean ParamType = "boolean"
	ParamEnum    ParamType = "enum"
	ParamNumber  ParamType = "number"
)

// Parameter describes a single named parameter of a pipeline instruction.
type Parameter struct {
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
	Values   []string  `json:"values,omitempty"`
	Default  string    `json:"default,omitempty"`
}

// Instruction is a pipeline step with typed parameters, e.g. "git" or "sh".
type Instruction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Parameters  []Parameter `json:"parameters"`
}

// EnvironmentVariable is a build environment variable exposed via env.NAME.
type EnvironmentVariable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Section is a structural block keyword such as "stages" or "post".
type Section struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	InnerInstructions []string `json:"innerInstructions,omitempty"`
}

// Directive is a configuration block keyword such as "environment" or "options".
type Directive struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	InnerInstructions []string `json:"innerInstructions,omitempty"`
}

// PostCondition is a trigger condition usable inside a post{} block.
type PostCondition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Plugin identifies a Jenkins plugin contributing steps to the dataset.
type Plugin struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// document is the wire shape of the scraped dataset file.
type document struct {
	Date                 string                `json:"date"`
	Plugins              []Plugin              `json:"plugins"`
	Instructions         []Instruction         `json:"instructions"`
	Sections             []Section             `json:"sections"`
	Directives           []Directive           `json:"directives"`
	EnvironmentVariables []EnvironmentVariable `json:"environmentVariables"`
}
