package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
)

// UpdateContract checks witness of the contract owner and passes new code to
// the native Management contract. Current version is appended to data, so
// _deploy of the new code receives it as the last argument.
func UpdateContract(owner interop.Hash160, nefFile, manifest []byte, data any) {
	CheckOwnerWitness(owner)

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, AppendVersion(data))
}
