// Package ids mints identifiers for outbound hub messages.
package ids

import "github.com/segmentio/ksuid"

// Generator produces ksuid-based message ids. The underscore prefix keeps
// them valid as SAML NCName message identifiers.
type Generator struct{}

func (Generator) NewID() string {
	return "_" + ksuid.New().String()
}
