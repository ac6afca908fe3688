package dictionary

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is the YAML document shape for site dictionaries.
type Source struct {
	Attributes []*AttributeDefinition `yaml:"attributes"`
	Vendors    []*VendorDefinition    `yaml:"vendors,omitempty"`
}

// LoadBytes parses a YAML dictionary document and merges it into the
// dictionary.
func (d *Dictionary) LoadBytes(data []byte) error {
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return fmt.Errorf("failed to parse dictionary source: %w", err)
	}

	if err := d.AddAttributes(src.Attributes); err != nil {
		return err
	}

	for _, vendor := range src.Vendors {
		if err := d.AddVendor(vendor); err != nil {
			return err
		}
	}

	return nil
}

// LoadFile reads a YAML dictionary file and merges it into the dictionary.
func (d *Dictionary) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read dictionary file: %w", err)
	}
	return d.LoadBytes(data)
}

// Save serializes the dictionary content back into YAML form.
func (d *Dictionary) Save() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	src := Source{
		Attributes: make([]*AttributeDefinition, 0, len(d.byID)),
		Vendors:    make([]*VendorDefinition, 0, len(d.vendors)),
	}
	for _, attr := range d.byID {
		src.Attributes = append(src.Attributes, attr)
	}
	for _, vendor := range d.vendors {
		src.Vendors = append(src.Vendors, vendor)
	}

	out, err := yaml.Marshal(&src)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize dictionary: %w", err)
	}
	return out, nil
}
