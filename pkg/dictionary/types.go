package dictionary

// DataType represents the data type of an attribute value.
type DataType string

const (
	DataTypeString     DataType = "string"
	DataTypeOctets     DataType = "octets"
	DataTypeInteger    DataType = "integer"
	DataTypeIPAddr     DataType = "ipaddr"
	DataTypeDate       DataType = "date"
	DataTypeIPv6Addr   DataType = "ipv6addr"
	DataTypeIPv6Prefix DataType = "ipv6prefix"
	DataTypeIfID       DataType = "ifid"
	DataTypeTLV        DataType = "tlv"
)

// EncryptionType marks attributes whose values are obfuscated on the wire.
type EncryptionType string

const (
	EncryptionNone           EncryptionType = ""
	EncryptionUserPassword   EncryptionType = "user-password"
	EncryptionTunnelPassword EncryptionType = "tunnel-password"
)

// AttributeDefinition defines a RADIUS attribute.
type AttributeDefinition struct {
	ID          uint32            `yaml:"id"`
	Name        string            `yaml:"name"`
	DataType    DataType          `yaml:"data_type"`
	Encryption  EncryptionType    `yaml:"encryption,omitempty"`
	HasTag      bool              `yaml:"has_tag,omitempty"`
	Values      map[string]uint32 `yaml:"values,omitempty"`
	Description string            `yaml:"description,omitempty"`
}

// IsEncrypted returns true if the attribute value is obfuscated on the wire.
func (d *AttributeDefinition) IsEncrypted() bool {
	return d.Encryption != EncryptionNone
}

// ValueName resolves an enumerated value to its symbolic name, if any.
func (d *AttributeDefinition) ValueName(value uint32) (string, bool) {
	for name, v := range d.Values {
		if v == value {
			return name, true
		}
	}
	return "", false
}

// VendorDefinition defines a vendor and its attributes.
type VendorDefinition struct {
	ID          uint32                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description,omitempty"`
	Attributes  []*AttributeDefinition `yaml:"attributes"`
}
