package dictionary

import (
	"fmt"
	"strings"
	"sync"
)

// Dictionary is a registry of attribute metadata. Definitions can be added at
// any time (AddAttribute, AddVendor, LoadFile); lookups and registration are
// safe for concurrent use.
type Dictionary struct {
	mu            sync.RWMutex
	byID          map[uint32]*AttributeDefinition
	byName        map[string]*AttributeDefinition
	vendors       map[uint32]*VendorDefinition
	vendorsByName map[string]*VendorDefinition
}

// New creates an empty dictionary.
func New() *Dictionary {
	return &Dictionary{
		byID:          make(map[uint32]*AttributeDefinition),
		byName:        make(map[string]*AttributeDefinition),
		vendors:       make(map[uint32]*VendorDefinition),
		vendorsByName: make(map[string]*VendorDefinition),
	}
}

// AddAttribute registers a standard attribute definition.
func (d *Dictionary) AddAttribute(attr *AttributeDefinition) error {
	if attr == nil {
		return fmt.Errorf("attribute definition cannot be nil")
	}
	if attr.Name == "" {
		return fmt.Errorf("attribute %d has no name", attr.ID)
	}
	if attr.ID == 0 || attr.ID > 255 {
		return fmt.Errorf("attribute %q has invalid id %d", attr.Name, attr.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byID[attr.ID]; exists {
		return fmt.Errorf("attribute id %d already registered", attr.ID)
	}
	if _, exists := d.byName[strings.ToLower(attr.Name)]; exists {
		return fmt.Errorf("attribute name %q already registered", attr.Name)
	}

	d.byID[attr.ID] = attr
	d.byName[strings.ToLower(attr.Name)] = attr
	return nil
}

// AddAttributes registers a batch of standard attribute definitions.
func (d *Dictionary) AddAttributes(attrs []*AttributeDefinition) error {
	for _, attr := range attrs {
		if err := d.AddAttribute(attr); err != nil {
			return err
		}
	}
	return nil
}

// AddVendor registers a vendor and its attributes.
func (d *Dictionary) AddVendor(vendor *VendorDefinition) error {
	if vendor == nil {
		return fmt.Errorf("vendor definition cannot be nil")
	}
	if vendor.Name == "" {
		return fmt.Errorf("vendor %d has no name", vendor.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.vendors[vendor.ID]; exists {
		return fmt.Errorf("vendor id %d already registered", vendor.ID)
	}

	d.vendors[vendor.ID] = vendor
	d.vendorsByName[strings.ToLower(vendor.Name)] = vendor
	return nil
}

// LookupByID returns the standard attribute definition for a type code.
func (d *Dictionary) LookupByID(id uint32) (*AttributeDefinition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	attr, ok := d.byID[id]
	return attr, ok
}

// LookupByName returns the standard attribute definition for a name. The
// lookup is case-insensitive.
func (d *Dictionary) LookupByName(name string) (*AttributeDefinition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	attr, ok := d.byName[strings.ToLower(name)]
	return attr, ok
}

// LookupVendor returns the vendor definition for a vendor ID.
func (d *Dictionary) LookupVendor(vendorID uint32) (*VendorDefinition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	vendor, ok := d.vendors[vendorID]
	return vendor, ok
}

// LookupVendorAttribute returns the attribute definition for a vendor ID and
// vendor type code. Unknown vendors or subtypes fall back to opaque bytes at
// the call sites.
func (d *Dictionary) LookupVendorAttribute(vendorID, attrID uint32) (*AttributeDefinition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	vendor, ok := d.vendors[vendorID]
	if !ok {
		return nil, false
	}
	for _, attr := range vendor.Attributes {
		if attr.ID == attrID {
			return attr, true
		}
	}
	return nil, false
}

// Vendors returns all registered vendor definitions.
func (d *Dictionary) Vendors() []*VendorDefinition {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*VendorDefinition, 0, len(d.vendors))
	for _, vendor := range d.vendors {
		out = append(out, vendor)
	}
	return out
}
