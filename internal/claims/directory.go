package claims

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Payer is a directory entry keyed by the payer identifier carried in
// NM109 with qualifier PI.
type Payer struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Directory resolves payer identifiers. It is read-only after
// construction; a nil Directory resolves nothing.
type Directory struct {
	payers map[string]Payer
}

type directoryFile struct {
	Payers []Payer `yaml:"payers"`
}

// NewDirectory builds a directory from entries. Later entries win.
func NewDirectory(payers ...Payer) *Directory {
	d := &Directory{payers: make(map[string]Payer, len(payers))}
	for _, p := range payers {
		d.payers[p.ID] = p
	}
	return d
}

// ParseDirectory reads a YAML directory:
//
//	payers:
//	  - id: PAYER01
//	    name: ACME HEALTH PLAN
func ParseDirectory(data []byte) (*Directory, error) {
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}
	for i, p := range f.Payers {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("parse directory: payer %d has no id", i)
		}
	}
	return NewDirectory(f.Payers...), nil
}

// LoadDirectory reads a YAML directory file.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	return ParseDirectory(data)
}

// Payer returns the entry for id.
func (d *Directory) Payer(id string) (Payer, bool) {
	if d == nil {
		return Payer{}, false
	}
	p, ok := d.payers[id]
	return p, ok
}

// Len returns the number of payers.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.payers)
}
