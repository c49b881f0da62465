package batchtransfer

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/batchtransfer-contract/contracts/batchtransfer/batchconst"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
)

var (
	// ErrInvalidRange is matched by errors about ranges starting after their
	// end or at a negative ID.
	ErrInvalidRange = errors.New("invalid range")
	// ErrBatchSizeExceeded is matched by errors about ranges wider than the
	// contract limit.
	ErrBatchSizeExceeded = errors.New("batch size exceeded")
	// ErrTokenOwnership is matched by errors about assets that can't be moved
	// from the sender.
	ErrTokenOwnership = errors.New("token ownership error")
	// ErrNotWitnessed is returned when a transfer is signed neither by the
	// sender nor by the contract owner.
	ErrNotWitnessed = errors.New(batchconst.ErrNotWitnessed)
)

// RangeError describes a range rejected by the contract shape check.
type RangeError struct {
	Start *big.Int
	End   *big.Int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: start %s, end %s", ErrInvalidRange, e.Start, e.End)
}

// Is makes RangeError match ErrInvalidRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// BatchSizeError describes a range wider than the configured limit.
type BatchSizeError struct {
	Width *big.Int
	Limit *big.Int
}

func (e *BatchSizeError) Error() string {
	return fmt.Sprintf("%s: width %s, limit %s", ErrBatchSizeExceeded, e.Width, e.Limit)
}

// Is makes BatchSizeError match ErrBatchSizeExceeded.
func (e *BatchSizeError) Is(target error) bool {
	return target == ErrBatchSizeExceeded
}

// TokenOwnershipError carries the ID of the first asset that failed the
// ownership check or was rejected by the registry.
type TokenOwnershipError struct {
	ID *big.Int
}

func (e *TokenOwnershipError) Error() string {
	return fmt.Sprintf("%s: id %s", ErrTokenOwnership, e.ID)
}

// Is makes TokenOwnershipError match ErrTokenOwnership.
func (e *TokenOwnershipError) Is(target error) bool {
	return target == ErrTokenOwnership
}

// ParseFault converts VM fault exception produced by the contract into one of
// the typed errors of this package. Exceptions which are not thrown by the
// contract are returned as plain errors. Empty exception results in nil.
func ParseFault(exception string) error {
	if exception == "" {
		return nil
	}

	if i := strings.Index(exception, batchconst.ErrInvalidRange+":"); i >= 0 {
		var e = RangeError{Start: new(big.Int), End: new(big.Int)}
		_, err := fmt.Sscanf(exception[i:], batchconst.ErrInvalidRange+": start %d, end %d", e.Start, e.End)
		if err == nil {
			return &e
		}
	}

	if i := strings.Index(exception, batchconst.ErrBatchSizeExceeded+":"); i >= 0 {
		var e = BatchSizeError{Width: new(big.Int), Limit: new(big.Int)}
		_, err := fmt.Sscanf(exception[i:], batchconst.ErrBatchSizeExceeded+": width %d, limit %d", e.Width, e.Limit)
		if err == nil {
			return &e
		}
	}

	if i := strings.Index(exception, batchconst.ErrTokenOwnership+":"); i >= 0 {
		var e = TokenOwnershipError{ID: new(big.Int)}
		_, err := fmt.Sscanf(exception[i:], batchconst.ErrTokenOwnership+": id %d", e.ID)
		if err == nil {
			return &e
		}
	}

	if strings.Contains(exception, batchconst.ErrNotWitnessed) {
		return ErrNotWitnessed
	}

	return errors.New(exception)
}

// CheckExecResult returns nil if the transaction has been executed
// successfully. Otherwise, it returns the parsed fault exception.
func CheckExecResult(res *state.AppExecResult) error {
	if res == nil {
		return errors.New("nil execution result")
	}
	if res.VMState == vmstate.Halt {
		return nil
	}
	if err := ParseFault(res.FaultException); err != nil {
		return err
	}
	return fmt.Errorf("unexpected VM state %s", res.VMState)
}

// CheckRange performs the same shape and width checks as the contract does
// before any asset is touched, so obviously invalid ranges can be rejected
// without sending a transaction.
func CheckRange(start, end, maxBatchSize *big.Int) error {
	if start.Sign() < 0 || start.Cmp(end) > 0 {
		return &RangeError{Start: new(big.Int).Set(start), End: new(big.Int).Set(end)}
	}

	width := Width(start, end)
	if width.Cmp(maxBatchSize) > 0 {
		return &BatchSizeError{Width: width, Limit: new(big.Int).Set(maxBatchSize)}
	}

	return nil
}
