package core

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SignerRegistry keeps the set of signer backends available to the binary.
// Each backend registers a factory for its concrete SignerConfig under the
// type name that appears in the "type" attribute of the config file.
type SignerRegistry struct {
	factories map[string]func() SignerConfig
}

// NewSignerRegistry returns an empty registry
func NewSignerRegistry() *SignerRegistry {
	return &SignerRegistry{
		factories: make(map[string]func() SignerConfig),
	}
}

// Register registers a SignerConfig factory under the given type name.
// It panics if the name is already taken since that is a wiring mistake
// between modules.
func (r *SignerRegistry) Register(name string, factory func() SignerConfig) {
	if name == "" {
		panic("signer type name is empty")
	}
	if _, ok := r.factories[name]; ok {
		panic(fmt.Sprintf("signer type already registered: %s", name))
	}
	r.factories[name] = factory
}

// Names returns the registered type names in lexical order.
func (r *SignerRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unmarshal decodes bz into the concrete SignerConfig selected by its
// "type" attribute.
func (r *SignerRegistry) Unmarshal(bz []byte) (SignerConfig, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(bz, &probe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signer config: %v", err)
	}
	if probe.Type == "" {
		return nil, fmt.Errorf(`signer config attribute "type" is empty`)
	}
	factory, ok := r.factories[probe.Type]
	if !ok {
		return nil, fmt.Errorf("unknown signer type: %s (registered=%v)", probe.Type, r.Names())
	}
	config := factory()
	if err := json.Unmarshal(bz, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s signer config: %v", probe.Type, err)
	}
	return config, nil
}
