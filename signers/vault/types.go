package vault

import (
	"strings"
)

// envelope is the common wrapper of Vault API responses. Endpoints that have
// nothing to return leave Data unset.
type envelope[T any] struct {
	RequestID string   `json:"request_id"`
	Data      *T       `json:"data"`
	Warnings  []string `json:"warnings"`
}

// tokenData is the payload of auth/token/lookup-self.
type tokenData struct {
	Accessor    string   `json:"accessor"`
	CreationTTL int64    `json:"creation_ttl"`
	DisplayName string   `json:"display_name"`
	Path        string   `json:"path"`
	Policies    []string `json:"policies"`
	TTL         int64    `json:"ttl"`
	Type        string   `json:"type"`
}

// readKeyData is the payload of transit/keys/<name>. Each entry of Keys
// describes one key version; all attributes come back as strings.
type readKeyData struct {
	Keys map[int]map[string]string `json:"keys"`
}

type signRequest struct {
	Input string `json:"input"` // base64 encoded
}

// signData is the payload of transit/sign/<name>. The signature has the form
// "vault:v<key_version>:<base64>".
type signData struct {
	KeyVersion int    `json:"key_version"`
	Signature  string `json:"signature"`
}

// wrappingKeyData is the payload of transit/wrapping_key.
type wrappingKeyData struct {
	PublicKey string `json:"public_key"`
}

// exportKeyData is the payload of transit/export/<type>/<name>.
type exportKeyData struct {
	Name string         `json:"name"`
	Type string         `json:"type"`
	Keys map[int]string `json:"keys"`
}

// latestVersion returns the entry with the highest version number.
func latestVersion[T any](keys map[int]T) (int, T, bool) {
	var (
		latest int
		value  T
		found  bool
	)
	for version, v := range keys {
		if !found || version > latest {
			latest = version
			value = v
			found = true
		}
	}
	return latest, value, found
}

// pemLines splits a PEM-encoded key into lines. A trailing newline does not
// produce an empty last line.
func pemLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
