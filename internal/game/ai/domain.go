// Package ai drives the enemy side. Decisions come from a Hierarchical Task
// Network (HTN) domain whose method preconditions are Lua hooks; without a
// planner the same rules are applied natively.
package ai

import (
	"embed"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed content
var content embed.FS

// DefaultDomainFile and DefaultScriptFile name the embedded skirmisher content.
const (
	DefaultDomainFile = "content/skirmisher.yaml"
	DefaultScriptFile = "content/skirmisher.lua"
)

// RootTask is the task every plan starts from.
const RootTask = "behave"

// Task is an abstract goal that can be decomposed by methods.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method decomposes a task into an ordered list of subtasks or operator IDs.
//
// Precondition is a Lua function name; empty means always applicable.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"`
	Subtasks     []string `yaml:"subtasks"`
}

// Operator is a primitive action on the board.
type Operator struct {
	ID     string `yaml:"id"`
	Action Action `yaml:"action"`
	Target string `yaml:"target"` // "preferred_target", "weakest_target", "random_free_cell" or empty
}

// Domain holds a full HTN domain.
//
// Invariant: all Task, Method and Operator IDs are unique within their slice.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// Validate checks required fields, uniqueness and cross references.
//
// Postcondition: nil return guarantees the root task exists and every
// subtask names a known task or operator.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai.Domain: ID must not be empty")
	}
	taskIDs := make(map[string]struct{}, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("ai.Domain %q: task has empty ID", d.ID)
		}
		if _, dup := taskIDs[t.ID]; dup {
			return fmt.Errorf("ai.Domain %q: duplicate task ID %q", d.ID, t.ID)
		}
		taskIDs[t.ID] = struct{}{}
	}
	if _, ok := taskIDs[RootTask]; !ok {
		return fmt.Errorf("ai.Domain %q: missing root task %q", d.ID, RootTask)
	}

	valid := make(map[string]struct{}, len(d.Tasks)+len(d.Operators))
	for id := range taskIDs {
		valid[id] = struct{}{}
	}
	for _, op := range d.Operators {
		if op.ID == "" {
			return fmt.Errorf("ai.Domain %q: operator has empty ID", d.ID)
		}
		if !op.Action.Valid() {
			return fmt.Errorf("ai.Domain %q operator %q: unknown action %q", d.ID, op.ID, op.Action)
		}
		if _, dup := valid[op.ID]; dup {
			return fmt.Errorf("ai.Domain %q: duplicate operator ID %q", d.ID, op.ID)
		}
		valid[op.ID] = struct{}{}
	}

	methodIDs := make(map[string]struct{}, len(d.Methods))
	for _, m := range d.Methods {
		if m.TaskID == "" || m.ID == "" {
			return fmt.Errorf("ai.Domain %q: method missing task or ID", d.ID)
		}
		if _, dup := methodIDs[m.ID]; dup {
			return fmt.Errorf("ai.Domain %q: duplicate method ID %q", d.ID, m.ID)
		}
		methodIDs[m.ID] = struct{}{}
		if _, ok := taskIDs[m.TaskID]; !ok {
			return fmt.Errorf("ai.Domain %q method %q: task %q is unknown", d.ID, m.ID, m.TaskID)
		}
		if len(m.Subtasks) == 0 {
			return fmt.Errorf("ai.Domain %q method %q: subtasks must not be empty", d.ID, m.ID)
		}
		for _, sub := range m.Subtasks {
			if _, ok := valid[sub]; !ok {
				return fmt.Errorf("ai.Domain %q method %q: subtask %q is neither a task nor an operator", d.ID, m.ID, sub)
			}
		}
	}
	return nil
}

// OperatorByID returns the operator with the given ID.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns the methods decomposing taskID, in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

type yamlDomainFile struct {
	Domain *Domain `yaml:"domain"`
}

// ParseDomain decodes and validates a domain document.
func ParseDomain(data []byte) (*Domain, error) {
	var f yamlDomainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ai.ParseDomain: %w", err)
	}
	if f.Domain == nil {
		return nil, errors.New("ai.ParseDomain: missing top-level 'domain' key")
	}
	if err := f.Domain.Validate(); err != nil {
		return nil, err
	}
	return f.Domain, nil
}

// LoadDomain reads a domain from path on fsys. An empty path selects the
// embedded skirmisher domain.
func LoadDomain(fsys afero.Fs, path string) (*Domain, error) {
	if path == "" {
		return DefaultDomain()
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDomain: reading %q: %w", path, err)
	}
	return ParseDomain(data)
}

// DefaultDomain returns the embedded skirmisher domain.
func DefaultDomain() (*Domain, error) {
	data, err := content.ReadFile(DefaultDomainFile)
	if err != nil {
		return nil, err
	}
	return ParseDomain(data)
}

// DefaultScript returns the embedded precondition script.
func DefaultScript() string {
	data, err := content.ReadFile(DefaultScriptFile)
	if err != nil {
		panic(err)
	}
	return string(data)
}
