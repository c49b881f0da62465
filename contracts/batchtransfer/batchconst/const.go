// Package batchconst contains constants shared by the BatchTransfer contract
// and its off-chain clients.
package batchconst

const (
	// ErrInvalidRange is a prefix of the exception thrown when the start of
	// the requested range is negative or greater than its end. The message
	// continues with "start <start>, end <end>".
	ErrInvalidRange = "InvalidRange"
	// ErrBatchSizeExceeded is a prefix of the exception thrown when the range
	// is wider than the configured limit. The message continues with
	// "width <width>, limit <maxBatchSize>".
	ErrBatchSizeExceeded = "BatchSizeExceeded"
	// ErrTokenOwnership is a prefix of the exception thrown when some asset
	// of the range can't be moved from the sender: it is owned by someone
	// else, does not exist or the contract is not approved to move it. The
	// message continues with "id <id>".
	ErrTokenOwnership = "TokenOwnershipError"

	// ErrNotWitnessed is thrown when a batch transfer is not signed either by
	// the sender or by the contract owner.
	ErrNotWitnessed = "not witnessed by sender or owner"
	// ErrInvalidParty is thrown for malformed account arguments.
	ErrInvalidParty = "invalid party"
	// ErrInvalidConfig is thrown on deployment with malformed parameters.
	ErrInvalidConfig = "invalid configuration"

	// BatchTransferEvent is the name of the notification produced once per
	// successful batch transfer.
	BatchTransferEvent = "BatchTransfer"
)
