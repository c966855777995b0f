// Package layout compiles record layouts declared in YAML into record types
// known at run time.
//
// A layout document lists named layouts. Each one describes the columns of
// one kind of line, and optionally the prefix pattern telling that kind apart
// in a mixed stream:
//
//	layouts:
//	  - name: payment
//	    match: "PAY*"
//	    fields:
//	      - name: id
//	        type: long
//	        length: 5
//	        padder: "0"
//	        fillers: [{length: 3, padder: "PAY"}]
//	      - name: payer
//	        fields:
//	          - {name: name, length: 10, align: right}
//	      - name: amounts
//	        type: decimal
//	        format: "2"
//	        length: 9
//	        padder: "0"
//	        occurs: 3
//	    trailing:
//	      - {length: 2, padder: "_"}
//
// A filler whose padder holds several characters is a literal: its length
// defaults to the length of the text. Compiled records are structs built
// with reflect.StructOf whose JSON names are the field names of the layout.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a set of layouts as read from YAML.
type Document struct {
	Layouts []Definition `yaml:"layouts"`
}

// Definition declares one record layout.
type Definition struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Match       string     `yaml:"match,omitempty"`
	Fields      []FieldDef `yaml:"fields"`
	Trailing    []FillDef  `yaml:"trailing,omitempty"`
}

// FieldDef declares a fragment, a nested record (when Fields is set) or,
// without a name, a run of fillers.
type FieldDef struct {
	Name      string     `yaml:"name,omitempty"`
	Type      string     `yaml:"type,omitempty"`
	Length    int        `yaml:"length,omitempty"`
	Padder    string     `yaml:"padder,omitempty"`
	Align     string     `yaml:"align,omitempty"`
	Format    string     `yaml:"format,omitempty"`
	Optional  bool       `yaml:"optional,omitempty"`
	Occurs    int        `yaml:"occurs,omitempty"`
	Converter string     `yaml:"converter,omitempty"`
	Fillers   []FillDef  `yaml:"fillers,omitempty"`
	Fields    []FieldDef `yaml:"fields,omitempty"`
}

// FillDef declares a filler.
type FillDef struct {
	Length int    `yaml:"length,omitempty"`
	Padder string `yaml:"padder,omitempty"`
}

// Parse reads a layout document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse layout document: %w", err)
	}
	return &doc, nil
}

// Load reads a layout document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return Parse(data)
}

// Save writes doc to path.
func Save(doc *Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal layout document: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}
	return nil
}
