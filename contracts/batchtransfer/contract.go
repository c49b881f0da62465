package batchtransfer

import (
	"github.com/nspcc-dev/batchtransfer-contract/common"
	"github.com/nspcc-dev/batchtransfer-contract/contracts/batchtransfer/batchconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	registryKey     = "registry"
	maxBatchSizeKey = "maxBatchSize"
	ownerKey        = "owner"
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	if data == nil {
		panic(batchconst.ErrInvalidConfig + ": missing deploy data")
	}
	args := data.([]any)
	if len(args) < 2 {
		panic(batchconst.ErrInvalidConfig + ": expected [registry, maxBatchSize, owner]")
	}

	registry := args[0].(interop.Hash160)
	if !common.IsValidParty(registry) {
		panic(batchconst.ErrInvalidConfig + ": invalid registry address")
	}
	if management.GetContract(registry) == nil {
		panic(batchconst.ErrInvalidConfig + ": registry contract not found")
	}

	maxBatchSize := args[1].(int)
	if maxBatchSize <= 0 {
		panic(batchconst.ErrInvalidConfig + ": invalid batch size " + std.Itoa10(maxBatchSize))
	}

	var owner interop.Hash160
	if len(args) > 2 && args[2] != nil {
		owner = args[2].(interop.Hash160)
		if !common.IsValidParty(owner) {
			panic(batchconst.ErrInvalidConfig + ": invalid owner address")
		}
	} else {
		owner = runtime.GetScriptContainer().Sender
	}

	ctx := storage.GetContext()
	storage.Put(ctx, registryKey, registry)
	storage.Put(ctx, maxBatchSizeKey, maxBatchSize)
	storage.Put(ctx, ownerKey, owner)

	runtime.Log("batch transfer contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by the contract owner. Configuration set on deployment is kept.
func Update(nefFile, manifest []byte, data any) {
	ctx := storage.GetReadOnlyContext()
	common.UpdateContract(getOwner(ctx), nefFile, manifest, data)
	runtime.Log("batch transfer contract updated")
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// Registry returns the address of the asset registry contract the assets are
// transferred in.
func Registry() interop.Hash160 {
	return getRegistry(storage.GetReadOnlyContext())
}

// MaxBatchSize returns the maximum number of assets moved by a single
// BatchTransfer call.
func MaxBatchSize() int {
	return getMaxBatchSize(storage.GetReadOnlyContext())
}

// Owner returns the account allowed to update the contract and to move
// approved assets on behalf of their holders.
func Owner() interop.Hash160 {
	return getOwner(storage.GetReadOnlyContext())
}

// BatchTransfer moves every asset with ID in the inclusive [start, end] range
// from `from` to `to`. The contract must be approved in the registry as a
// spender of every asset. Transaction must be witnessed either by `from` or by
// the contract owner.
//
// The range must be non-empty, start with a non-negative ID and be no wider
// than MaxBatchSize. Every asset is checked to be owned by `from` before any
// of them is moved, and once more right before its own transfer. Any failure
// aborts the whole invocation, so either all assets change owner or none.
//
// Produces a single BatchTransfer notification on success.
func BatchTransfer(from, to interop.Hash160, start, end int) {
	if !common.IsValidParty(from) || !common.IsValidParty(to) {
		panic(batchconst.ErrInvalidParty)
	}

	ctx := storage.GetReadOnlyContext()
	checkRange(start, end, getMaxBatchSize(ctx))

	if !common.HasAnyWitness(from, getOwner(ctx)) {
		panic(batchconst.ErrNotWitnessed)
	}

	registry := getRegistry(ctx)
	for id := start; ; id++ {
		if !isOwnedBy(registry, id, from) {
			abortOwnership(id)
		}
		if id == end {
			break
		}
	}

	for id := start; ; id++ {
		if !isOwnedBy(registry, id, from) {
			abortOwnership(id)
		}
		if !transferFrom(registry, from, to, id) {
			abortOwnership(id)
		}
		if id == end {
			break
		}
	}

	runtime.Notify(batchconst.BatchTransferEvent, from, to, start, end)
}

// GetMissingTokens returns IDs from the inclusive [start, end] range that are
// not owned by the specified account, in ascending order. Assets unknown to
// the registry are reported as missing. The result is empty if start is
// greater than end. Range width is not limited.
func GetMissingTokens(owner interop.Hash160, start, end int) []int {
	if !common.IsValidParty(owner) {
		panic(batchconst.ErrInvalidParty)
	}

	registry := getRegistry(storage.GetReadOnlyContext())

	missing := []int{}
	if start > end {
		return missing
	}

	// end may be the largest integer, so id is never incremented past it
	for id := start; ; id++ {
		if !isOwnedBy(registry, id, owner) {
			missing = append(missing, id)
		}
		if id == end {
			break
		}
	}

	return missing
}

// checkRange panics if [start, end] is not an admissible batch range.
func checkRange(start, end, maxBatchSize int) {
	if start < 0 || start > end {
		panic(batchconst.ErrInvalidRange + ": start " + std.Itoa10(start) + ", end " + std.Itoa10(end))
	}

	// end - start + 1 overflows for [0, max integer]
	if end-start >= maxBatchSize {
		panic(batchconst.ErrBatchSizeExceeded + ": width " + itoaNext(end-start) + ", limit " + std.Itoa10(maxBatchSize))
	}
}

// itoaNext returns decimal representation of n+1 for non-negative n without
// computing n+1.
func itoaNext(n int) string {
	high := n / 10
	low := n%10 + 1
	if low == 10 {
		high++
		low = 0
	}
	if high == 0 {
		return std.Itoa10(low)
	}
	return std.Itoa10(high) + std.Itoa10(low)
}

func abortOwnership(id int) {
	panic(batchconst.ErrTokenOwnership + ": id " + std.Itoa10(id))
}

// isOwnedBy checks that the registry knows the asset and its current owner is
// the given account.
func isOwnedBy(registry interop.Hash160, id int, account interop.Hash160) bool {
	owner := ownerOf(registry, id)
	return owner != nil && owner.Equals(account)
}

// ownerOf returns nil if the registry fails to find the asset.
func ownerOf(registry interop.Hash160, id int) (owner interop.Hash160) {
	defer func() {
		if r := recover(); r != nil {
			owner = nil
		}
	}()

	owner = contract.Call(registry, "ownerOf", contract.ReadOnly, id).(interop.Hash160)
	return owner
}

// transferFrom returns false if the registry rejects the transfer either way.
func transferFrom(registry, from, to interop.Hash160, id int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	ok = contract.Call(registry, "transferFrom", contract.All, from, to, id).(bool)
	return ok
}

func getRegistry(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, registryKey).(interop.Hash160)
}

func getMaxBatchSize(ctx storage.Context) int {
	return storage.Get(ctx, maxBatchSizeKey).(int)
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, ownerKey).(interop.Hash160)
}
