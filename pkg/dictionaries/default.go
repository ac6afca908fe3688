// Package dictionaries carries the built-in attribute definitions from
// RFC 2865, RFC 2866, RFC 2868 and RFC 2869.
package dictionaries

import (
	"github.com/radkit/radclient/pkg/dictionary"
)

var standardAttributes = []*dictionary.AttributeDefinition{
	{ID: 1, Name: "User-Name", DataType: dictionary.DataTypeString},                                                             // RFC2865
	{ID: 2, Name: "User-Password", DataType: dictionary.DataTypeString, Encryption: dictionary.EncryptionUserPassword},          // RFC2865
	{ID: 3, Name: "CHAP-Password", DataType: dictionary.DataTypeOctets},                                                         // RFC2865
	{ID: 4, Name: "NAS-IP-Address", DataType: dictionary.DataTypeIPAddr},                                                        // RFC2865
	{ID: 5, Name: "NAS-Port", DataType: dictionary.DataTypeInteger},                                                             // RFC2865
	{ // RFC2865
		ID:       6,
		Name:     "Service-Type",
		DataType: dictionary.DataTypeInteger,
		Values: map[string]uint32{
			"Login-User":          1,
			"Framed-User":         2,
			"Callback-Login-User": 3,
			"Outbound-User":       5,
			"Administrative-User": 6,
			"NAS-Prompt-User":     7,
			"Authenticate-Only":   8,
			"Call-Check":          10,
		},
	},
	{ // RFC2865
		ID:       7,
		Name:     "Framed-Protocol",
		DataType: dictionary.DataTypeInteger,
		Values: map[string]uint32{
			"PPP":  1,
			"SLIP": 2,
		},
	},
	{ID: 8, Name: "Framed-IP-Address", DataType: dictionary.DataTypeIPAddr},   // RFC2865
	{ID: 9, Name: "Framed-IP-Netmask", DataType: dictionary.DataTypeIPAddr},   // RFC2865
	{ID: 11, Name: "Filter-Id", DataType: dictionary.DataTypeString},          // RFC2865
	{ID: 12, Name: "Framed-MTU", DataType: dictionary.DataTypeInteger},        // RFC2865
	{ID: 13, Name: "Framed-Compression", DataType: dictionary.DataTypeInteger}, // RFC2865
	{ID: 18, Name: "Reply-Message", DataType: dictionary.DataTypeString},      // RFC2865
	{ID: 19, Name: "Callback-Number", DataType: dictionary.DataTypeString},    // RFC2865
	{ID: 24, Name: "State", DataType: dictionary.DataTypeOctets},              // RFC2865
	{ID: 25, Name: "Class", DataType: dictionary.DataTypeOctets},              // RFC2865
	{ID: 26, Name: "Vendor-Specific", DataType: dictionary.DataTypeTLV},       // RFC2865
	{ID: 27, Name: "Session-Timeout", DataType: dictionary.DataTypeInteger},   // RFC2865
	{ID: 28, Name: "Idle-Timeout", DataType: dictionary.DataTypeInteger},      // RFC2865
	{ID: 30, Name: "Called-Station-Id", DataType: dictionary.DataTypeString},  // RFC2865
	{ID: 31, Name: "Calling-Station-Id", DataType: dictionary.DataTypeString}, // RFC2865
	{ID: 32, Name: "NAS-Identifier", DataType: dictionary.DataTypeString},     // RFC2865
	{ID: 33, Name: "Proxy-State", DataType: dictionary.DataTypeOctets},        // RFC2865
	{ // RFC2866
		ID:       40,
		Name:     "Acct-Status-Type",
		DataType: dictionary.DataTypeInteger,
		Values: map[string]uint32{
			"Start":          1,
			"Stop":           2,
			"Interim-Update": 3,
			"Accounting-On":  7,
			"Accounting-Off": 8,
		},
	},
	{ID: 41, Name: "Acct-Delay-Time", DataType: dictionary.DataTypeInteger},      // RFC2866
	{ID: 42, Name: "Acct-Input-Octets", DataType: dictionary.DataTypeInteger},    // RFC2866
	{ID: 43, Name: "Acct-Output-Octets", DataType: dictionary.DataTypeInteger},   // RFC2866
	{ID: 44, Name: "Acct-Session-Id", DataType: dictionary.DataTypeString},       // RFC2866
	{ID: 45, Name: "Acct-Authentic", DataType: dictionary.DataTypeInteger},       // RFC2866
	{ID: 46, Name: "Acct-Session-Time", DataType: dictionary.DataTypeInteger},    // RFC2866
	{ID: 47, Name: "Acct-Input-Packets", DataType: dictionary.DataTypeInteger},   // RFC2866
	{ID: 48, Name: "Acct-Output-Packets", DataType: dictionary.DataTypeInteger},  // RFC2866
	{ // RFC2866
		ID:       49,
		Name:     "Acct-Terminate-Cause",
		DataType: dictionary.DataTypeInteger,
		Values: map[string]uint32{
			"User-Request":        1,
			"Lost-Carrier":        2,
			"Lost-Service":        3,
			"Idle-Timeout":        4,
			"Session-Timeout":     5,
			"Admin-Reset":         6,
			"Admin-Reboot":        7,
			"Port-Error":          8,
			"NAS-Error":           9,
			"NAS-Request":         10,
			"NAS-Reboot":          11,
			"Port-Unneeded":       12,
			"Port-Preempted":      13,
			"Port-Suspended":      14,
			"Service-Unavailable": 15,
			"Callback":            16,
			"User-Error":          17,
			"Host-Request":        18,
		},
	},
	{ID: 55, Name: "Event-Timestamp", DataType: dictionary.DataTypeDate},    // RFC2869
	{ID: 60, Name: "CHAP-Challenge", DataType: dictionary.DataTypeOctets},   // RFC2865
	{ // RFC2865
		ID:       61,
		Name:     "NAS-Port-Type",
		DataType: dictionary.DataTypeInteger,
		Values: map[string]uint32{
			"Async":             0,
			"Sync":              1,
			"ISDN":              2,
			"Virtual":           5,
			"Ethernet":          15,
			"Wireless-802.11":   19,
		},
	},
	{ID: 62, Name: "Port-Limit", DataType: dictionary.DataTypeInteger},                                                                        // RFC2865
	{ID: 64, Name: "Tunnel-Type", DataType: dictionary.DataTypeInteger, HasTag: true},                                                         // RFC2868
	{ID: 65, Name: "Tunnel-Medium-Type", DataType: dictionary.DataTypeInteger, HasTag: true},                                                  // RFC2868
	{ID: 66, Name: "Tunnel-Client-Endpoint", DataType: dictionary.DataTypeString, HasTag: true},                                               // RFC2868
	{ID: 67, Name: "Tunnel-Server-Endpoint", DataType: dictionary.DataTypeString, HasTag: true},                                               // RFC2868
	{ID: 69, Name: "Tunnel-Password", DataType: dictionary.DataTypeString, HasTag: true, Encryption: dictionary.EncryptionTunnelPassword},     // RFC2868
	{ID: 79, Name: "EAP-Message", DataType: dictionary.DataTypeOctets},                                                                        // RFC2869
	{ID: 80, Name: "Message-Authenticator", DataType: dictionary.DataTypeOctets},                                                              // RFC2869
	{ID: 81, Name: "Tunnel-Private-Group-Id", DataType: dictionary.DataTypeString, HasTag: true},                                              // RFC2868
	{ID: 82, Name: "Tunnel-Assignment-Id", DataType: dictionary.DataTypeString, HasTag: true},                                                 // RFC2868
	{ID: 83, Name: "Tunnel-Preference", DataType: dictionary.DataTypeInteger, HasTag: true},                                                   // RFC2868
	{ID: 85, Name: "Acct-Interim-Interval", DataType: dictionary.DataTypeInteger},                                                             // RFC2869
	{ID: 87, Name: "NAS-Port-Id", DataType: dictionary.DataTypeString},                                                                        // RFC2869
	{ID: 88, Name: "Framed-Pool", DataType: dictionary.DataTypeString},                                                                        // RFC2869
	{ID: 95, Name: "NAS-IPv6-Address", DataType: dictionary.DataTypeIPv6Addr},                                                                 // RFC3162
	{ID: 96, Name: "Framed-Interface-Id", DataType: dictionary.DataTypeIfID},                                                                  // RFC3162
	{ID: 98, Name: "Login-IPv6-Host", DataType: dictionary.DataTypeIPv6Addr},                                                                  // RFC3162
	{ID: 101, Name: "Error-Cause", DataType: dictionary.DataTypeInteger},                                                                      // RFC5176
}

// Default builds a dictionary populated with the standard RFC attribute set
// and the built-in vendor definitions.
func Default() (*dictionary.Dictionary, error) {
	dict := dictionary.New()
	if err := dict.AddAttributes(standardAttributes); err != nil {
		return nil, err
	}
	for _, vendor := range builtinVendors {
		if err := dict.AddVendor(vendor); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

// MustDefault builds the standard dictionary and panics on registration
// errors. The built-in table is static, so failure means a programming
// mistake in this package.
func MustDefault() *dictionary.Dictionary {
	dict, err := Default()
	if err != nil {
		panic(err)
	}
	return dict
}
