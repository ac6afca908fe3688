package packet

const (
	// HeaderLength is the length of the RADIUS packet header in bytes.
	HeaderLength = 20
	// MaxLength is the maximum allowed RADIUS packet length.
	MaxLength = 4096
	// MinLength is the minimum allowed RADIUS packet length.
	MinLength = HeaderLength
	// AuthenticatorLength is the length of the authenticator field.
	AuthenticatorLength = 16
	// AttributeHeaderLength is the length of an attribute header (Type + Length).
	AttributeHeaderLength = 2
	// VendorSpecificHeaderLength is the length of a VSA header
	// (Vendor-Id + Vendor-Type + Vendor-Length).
	VendorSpecificHeaderLength = 6
)

// Well-known attribute types the core handles specially.
const (
	AttributeTypeUserName             = 1
	AttributeTypeUserPassword         = 2
	AttributeTypeCHAPPassword         = 3
	AttributeTypeVendorSpecific       = 26
	AttributeTypeCHAPChallenge        = 60
	AttributeTypeTunnelPassword       = 69
	AttributeTypeMessageAuthenticator = 80
)
