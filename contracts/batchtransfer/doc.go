/*
Package batchtransfer implements BatchTransfer contract which moves a
contiguous range of non-fungible assets between two accounts in a single
invocation.

The contract does not own any assets. It is bound on deployment to an asset
registry contract providing `ownerOf(id)` and `transferFrom(from, to, id)`
methods, and acts there as an approved spender: asset holders approve the
BatchTransfer contract for every asset they want to move in a batch. A batch
is an inclusive range of asset IDs which can't be wider than the limit set on
deployment. Deployment data is an array of the registry address, the limit and
an optional owner address (transaction sender by default).

Every asset of the batch is checked to belong to the sender before any of
them is moved. A single failure (foreign or missing asset, revoked approval)
faults the whole transaction, so a batch is never transferred partially.

GetMissingTokens helps to prepare a batch: it lists IDs of the range which are
not owned by an account without any range width limit.

# Contract notifications

BatchTransfer notification. This notification is produced once per successful
batch transfer and covers the whole range.

	BatchTransfer:
	  - name: from
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: start
	    type: Integer
	  - name: end
	    type: Integer

Registry contract produces its own notifications for every moved asset.
*/
package batchtransfer

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'registry' -> interop.Hash160
    asset registry contract address
  - 'maxBatchSize' -> int
    maximum number of assets in a single batch
  - 'owner' -> interop.Hash160
    account allowed to update the contract

# Configuration
All values are written once on deployment and never change. No per-asset
data is stored: ownership is read from the registry on every call.
*/
