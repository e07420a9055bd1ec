package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// PrereqTree is a boolean expression over module codes. Exactly one of
// Module, And or Or is set.
type PrereqTree struct {
	Module string
	And    []PrereqTree
	Or     []PrereqTree
}

type prereqBranch struct {
	And []PrereqTree `json:"and,omitempty"`
	Or  []PrereqTree `json:"or,omitempty"`
}

func (p PrereqTree) MarshalJSON() ([]byte, error) {
	if p.Module != "" {
		return json.Marshal(p.Module)
	}
	return json.Marshal(prereqBranch{And: p.And, Or: p.Or})
}

func (p *PrereqTree) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Module)
	}
	var branch prereqBranch
	err := json.Unmarshal(data, &branch)
	if err != nil {
		return err
	}
	if len(branch.And) > 0 && len(branch.Or) > 0 {
		return fmt.Errorf("prereq node cannot be both and & or")
	}
	p.And = branch.And
	p.Or = branch.Or
	return nil
}

// Modules returns the sorted unique module codes referenced by the tree.
func (p PrereqTree) Modules() []string {
	seen := map[string]struct{}{}
	p.collect(seen)

	out := make([]string, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (p PrereqTree) collect(seen map[string]struct{}) {
	if p.Module != "" {
		seen[p.Module] = struct{}{}
		return
	}
	for _, child := range p.And {
		child.collect(seen)
	}
	for _, child := range p.Or {
		child.collect(seen)
	}
}
