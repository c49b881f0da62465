package common

import "github.com/nspcc-dev/neo-go/pkg/interop"

// IsValidParty checks that h can be used as an account address.
func IsValidParty(h interop.Hash160) bool {
	return h != nil && len(h) == interop.Hash160Len
}
