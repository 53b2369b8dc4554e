// Package definition loads and validates template definition files.
//
// A definition file names global variable sources and an ordered list of
// template jobs. Paths inside src, dest and include_vars may embed
// template syntax; they are kept verbatim here and resolved later, once
// the global variables they may depend on are known.
package definition

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is one parsed definition file.
type Definition struct {
	// Path the definition was loaded from.
	Path string
	// Vars is the global vars block, kept as a mapping node so keys keep
	// their document order. Nil when absent.
	Vars *yaml.Node
	// IncludeVars lists global include files, in order.
	IncludeVars []string
	// Templates is the ordered job list; never empty.
	Templates []TemplateJob
}

// TemplateJob is one rendering unit. Immutable after Load; watch reloads
// construct jobs from scratch rather than patching them.
type TemplateJob struct {
	Src         string
	Dest        string
	Vars        *yaml.Node
	IncludeVars []string
}

type rawDefinition struct {
	Vars        yaml.Node  `yaml:"vars"`
	IncludeVars stringList `yaml:"include_vars"`
	Templates   []rawJob   `yaml:"templates"`
}

type rawJob struct {
	Src         string     `yaml:"src"`
	Dest        string     `yaml:"dest"`
	Vars        yaml.Node  `yaml:"vars"`
	IncludeVars stringList `yaml:"include_vars"`
}

// stringList accepts either a single scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = []string{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("include_vars must be a string or a list of strings")
	}
}

// Load parses and validates the definition file at path. Malformed YAML
// fails with a ParseError; a structurally invalid document fails with a
// SchemaError. Load only reads, it never resolves variables or paths.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	def := &Definition{
		Path:        path,
		Vars:        varsNode(&raw.Vars),
		IncludeVars: raw.IncludeVars,
	}

	if err := validateVars(def.Vars, path, "vars"); err != nil {
		return nil, err
	}
	if len(raw.Templates) == 0 {
		return nil, &SchemaError{Path: path, Detail: "missing or empty 'templates' list"}
	}

	for i, job := range raw.Templates {
		if job.Src == "" {
			return nil, &SchemaError{Path: path, Detail: fmt.Sprintf("template %d: missing 'src'", i)}
		}
		if job.Dest == "" {
			return nil, &SchemaError{Path: path, Detail: fmt.Sprintf("template %d: missing 'dest'", i)}
		}
		vars := varsNode(&raw.Templates[i].Vars)
		if err := validateVars(vars, path, fmt.Sprintf("template %d: vars", i)); err != nil {
			return nil, err
		}
		def.Templates = append(def.Templates, TemplateJob{
			Src:         job.Src,
			Dest:        job.Dest,
			Vars:        vars,
			IncludeVars: job.IncludeVars,
		})
	}

	return def, nil
}

// varsNode returns node when it holds parsed content, nil for an absent key.
func varsNode(node *yaml.Node) *yaml.Node {
	if node.Kind == 0 {
		return nil
	}
	return node
}

func validateVars(node *yaml.Node, path, where string) error {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return &SchemaError{Path: path, Detail: where + " must be a mapping"}
	}
	return nil
}
