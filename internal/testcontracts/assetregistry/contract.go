// Package assetregistry implements a minimal non-fungible asset registry used
// to test BatchTransfer contract. Assets are identified by sequential integer
// IDs starting from 1. Every asset has an owner and at most one approved
// spender which is allowed to move it with TransferFrom.
package assetregistry

import (
	"github.com/nspcc-dev/batchtransfer-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/convert"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Prefixes used for contract data storage.
const (
	// prefixLastID contains the ID of the last minted asset.
	prefixLastID byte = 0x00
	// prefixTotalSupply contains the number of existing assets.
	prefixTotalSupply byte = 0x01
	// prefixOwner contains map from asset ID to its owner.
	prefixOwner byte = 0x10
	// prefixApproval contains map from asset ID to its approved spender.
	prefixApproval byte = 0x11
	// prefixBalance contains map from the owner to their balance.
	prefixBalance byte = 0x20
)

// ErrNonexistentAsset is thrown for IDs that were never minted or burned.
const ErrNonexistentAsset = "nonexistent asset"

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}

	ctx := storage.GetContext()
	storage.Put(ctx, []byte{prefixLastID}, 0)
	storage.Put(ctx, []byte{prefixTotalSupply}, 0)
}

// Symbol returns registry symbol.
func Symbol() string {
	return "TNFT"
}

// Decimals returns registry decimals.
func Decimals() int {
	return 0
}

// TotalSupply returns the number of existing assets.
func TotalSupply() int {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, []byte{prefixTotalSupply}).(int)
}

// BalanceOf returns the number of assets owned by the specified account.
func BalanceOf(owner interop.Hash160) int {
	if !common.IsValidParty(owner) {
		panic("invalid owner")
	}
	ctx := storage.GetReadOnlyContext()
	balance := storage.Get(ctx, append([]byte{prefixBalance}, owner...))
	if balance == nil {
		return 0
	}
	return balance.(int)
}

// Mint creates a new asset owned by the specified account and returns its ID.
func Mint(owner interop.Hash160) int {
	if !common.IsValidParty(owner) {
		panic("invalid owner")
	}

	ctx := storage.GetContext()
	id := storage.Get(ctx, []byte{prefixLastID}).(int) + 1
	storage.Put(ctx, []byte{prefixLastID}, id)
	updateTotalSupply(ctx, +1)

	storage.Put(ctx, ownerKey(id), owner)
	updateBalance(ctx, owner, +1)

	notifyTransfer(nil, owner, id)
	return id
}

// Burn destroys the asset. Transaction must be witnessed by the asset owner.
func Burn(id int) {
	ctx := storage.GetContext()
	owner := mustGetOwner(ctx, id)
	common.CheckOwnerWitness(owner)

	storage.Delete(ctx, ownerKey(id))
	storage.Delete(ctx, approvalKey(id))
	updateBalance(ctx, owner, -1)
	updateTotalSupply(ctx, -1)

	notifyTransfer(owner, nil, id)
}

// OwnerOf returns the owner of the asset. It panics if the asset does not
// exist.
func OwnerOf(id int) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return mustGetOwner(ctx, id)
}

// Approve allows spender to move the asset with TransferFrom. Transaction must
// be witnessed by the asset owner. Nil spender revokes the approval.
func Approve(spender interop.Hash160, id int) {
	ctx := storage.GetContext()
	owner := mustGetOwner(ctx, id)
	common.CheckOwnerWitness(owner)

	if spender == nil {
		storage.Delete(ctx, approvalKey(id))
	} else {
		if !common.IsValidParty(spender) {
			panic("invalid spender")
		}
		storage.Put(ctx, approvalKey(id), spender)
	}

	runtime.Notify("Approval", owner, spender, id)
}

// GetApproved returns approved spender of the asset or nil.
func GetApproved(id int) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	mustGetOwner(ctx, id)
	return getApproved(ctx, id)
}

// TransferFrom moves the asset from its current owner to the specified
// account. It panics if `from` is not the current owner. When called from the
// entry script, the transaction must be witnessed by `from`; when called by
// another contract, the calling contract must be the approved spender of the
// asset. Returns false if the caller is not authorized. Successful transfer
// clears the approval.
func TransferFrom(from, to interop.Hash160, id int) bool {
	if !common.IsValidParty(to) {
		panic("invalid receiver")
	}

	ctx := storage.GetContext()
	owner := mustGetOwner(ctx, id)
	if !owner.Equals(from) {
		panic("transfer from incorrect owner")
	}

	caller := runtime.GetCallingScriptHash()
	if caller.Equals(runtime.GetEntryScriptHash()) {
		if !runtime.CheckWitness(from) {
			return false
		}
	} else {
		approved := getApproved(ctx, id)
		if approved == nil || !approved.Equals(caller) {
			return false
		}
	}

	storage.Delete(ctx, approvalKey(id))
	if !from.Equals(to) {
		storage.Put(ctx, ownerKey(id), to)
		updateBalance(ctx, from, -1)
		updateBalance(ctx, to, +1)
	}

	notifyTransfer(from, to, id)
	return true
}

// notifyTransfer sends Transfer notification. Nil `from` means mint, nil `to`
// means burn.
func notifyTransfer(from, to interop.Hash160, id int) {
	runtime.Notify("Transfer", from, to, id)
}

func ownerKey(id int) []byte {
	return append([]byte{prefixOwner}, convert.ToBytes(id)...)
}

func approvalKey(id int) []byte {
	return append([]byte{prefixApproval}, convert.ToBytes(id)...)
}

func mustGetOwner(ctx storage.Context, id int) interop.Hash160 {
	owner := storage.Get(ctx, ownerKey(id))
	if owner == nil {
		panic(ErrNonexistentAsset)
	}
	return owner.(interop.Hash160)
}

func getApproved(ctx storage.Context, id int) interop.Hash160 {
	approved := storage.Get(ctx, approvalKey(id))
	if approved == nil {
		return nil
	}
	return approved.(interop.Hash160)
}

func updateBalance(ctx storage.Context, owner interop.Hash160, diff int) {
	key := append([]byte{prefixBalance}, owner...)
	var balance int
	b := storage.Get(ctx, key)
	if b != nil {
		balance = b.(int)
	}
	balance += diff
	if balance == 0 {
		storage.Delete(ctx, key)
	} else {
		storage.Put(ctx, key, balance)
	}
}

func updateTotalSupply(ctx storage.Context, diff int) {
	key := []byte{prefixTotalSupply}
	storage.Put(ctx, key, storage.Get(ctx, key).(int)+diff)
}
