package document

import (
	"fmt"
	"os"

	"collection-engine/core/identity"
	"collection-engine/core/snapshot"
	"collection-engine/core/utils"

	"gopkg.in/yaml.v3"
)

// Item is one keyed entry of a section.
type Item struct {
	Key   any `yaml:"key" json:"key"`
	Value any `yaml:"value,omitempty" json:"value,omitempty"`
}

// UnmarshalYAML accepts either a mapping or a bare scalar, which becomes both
// key and value.
func (it *Item) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		it.Key, it.Value = v, v
		return nil
	}
	type plain Item
	return n.Decode((*plain)(it))
}

// Section is one ordered group of items.
type Section struct {
	Key       any    `yaml:"key" json:"key"`
	Expansion string `yaml:"expansion,omitempty" json:"expansion,omitempty"`
	Items     []Item `yaml:"items" json:"items"`
}

// Document is a whole collection.
type Document struct {
	Name     string    `yaml:"name,omitempty" json:"name,omitempty"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &d, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = path
	}
	return d, nil
}

// Marshal encodes d as YAML.
func (d *Document) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return out, nil
}

// Inputs converts d into snapshot inputs. Key uniqueness is left to
// snapshot.Build.
func (d *Document) Inputs() ([]snapshot.Input[string, any], error) {
	inputs := make([]snapshot.Input[string, any], len(d.Sections))
	for i, sec := range d.Sections {
		key, err := utils.ToKey(sec.Key)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		state, err := snapshot.ParseExpansion(sec.Expansion)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", key, err)
		}

		items := make([]identity.Item[string, any], len(sec.Items))
		for j, it := range sec.Items {
			raw := it.Key
			if raw == nil {
				raw = it.Value
			}
			k, err := utils.ToKey(raw)
			if err != nil {
				return nil, fmt.Errorf("section %q item %d: %w", key, j, err)
			}
			items[j] = identity.Item[string, any]{Key: k, Value: it.Value}
		}
		inputs[i] = snapshot.Input[string, any]{Key: key, Items: items, Expansion: state}
	}
	return inputs, nil
}

// Build converts d into a snapshot, carrying expansion over from previous.
func (d *Document) Build(defaults func(int) snapshot.ExpansionState, previous *snapshot.Snapshot[string, any]) (*snapshot.Snapshot[string, any], error) {
	inputs, err := d.Inputs()
	if err != nil {
		return nil, err
	}
	return snapshot.Build(inputs, defaults, previous)
}

// FromSnapshot captures s, including the items of collapsed sections.
func FromSnapshot(name string, s *snapshot.Snapshot[string, any]) *Document {
	d := &Document{Name: name, Sections: make([]Section, 0, s.Len())}
	for _, sec := range s.Sections() {
		out := Section{Key: sec.Key, Expansion: sec.Expansion.String(), Items: make([]Item, len(sec.Items))}
		for j, it := range sec.Items {
			out.Items[j] = Item{Key: it.Key, Value: it.Value}
		}
		d.Sections = append(d.Sections, out)
	}
	return d
}
