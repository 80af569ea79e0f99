package semconv

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	// SignerBackendKey represents the signer backend type.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "vault", "memory"
	SignerBackendKey = attribute.Key("signer_backend")

	// KeyNameKey represents the name of the signing key on the backend.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "validator-consensus"
	KeyNameKey = attribute.Key("key_name")

	// KeyVersionKey represents the version of the signing key reported by the backend.
	//
	// Type: int
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: 1
	KeyVersionKey = attribute.Key("key_version")

	// MessageSizeKey represents the size in bytes of the message to sign.
	//
	// Type: int
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: 20
	MessageSizeKey = attribute.Key("message_size")

	// PackageKey represents the package path of a wrapped implementation.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "github.com/hyperledger-labs/yui-remote-signer/signers/vault"
	PackageKey = attribute.Key("package")
)

// AttributeGroup prefixes the given key to all attributes.
//
// For example, if the key is "foo" and the key of an attribute is "bar", the new key will be "foo.bar".
func AttributeGroup(key string, attributes ...attribute.KeyValue) []attribute.KeyValue {
	newAttrs := make([]attribute.KeyValue, 0, len(attributes))
	for _, attr := range attributes {
		newAttrs = append(newAttrs, attribute.KeyValue{
			Key:   attribute.Key(key + "." + string(attr.Key)),
			Value: attr.Value,
		})

	}
	return newAttrs
}
