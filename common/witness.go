package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

// ErrOwnerWitnessFailed appears when the method must be called
// by the contract owner but was not.
var ErrOwnerWitnessFailed = "owner witness check failed"

// CheckOwnerWitness checks witness of the passed owner.
// It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(owner interop.Hash160) {
	checkWitnessWithPanic(owner, ErrOwnerWitnessFailed)
}

// HasAnyWitness returns true if the transaction is witnessed by at least one
// of the given accounts.
func HasAnyWitness(a, b interop.Hash160) bool {
	return runtime.CheckWitness(a) || runtime.CheckWitness(b)
}

func checkWitnessWithPanic(caller interop.Hash160, panicMsg string) {
	if !runtime.CheckWitness(caller) {
		panic(panicMsg)
	}
}
