// Package batchtransfer contains RPC wrappers for BatchTransfer contract.
package batchtransfer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// BatchTransferEvent represents "BatchTransfer" event emitted by the contract.
type BatchTransferEvent struct {
	From  util.Uint160
	To    util.Uint160
	Start *big.Int
	End   *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// GetMissingTokens invokes `getMissingTokens` method of contract.
func (c *ContractReader) GetMissingTokens(owner util.Uint160, start *big.Int, end *big.Int) ([]*big.Int, error) {
	return itemToBigIntArray(unwrap.Item(c.invoker.Call(c.hash, "getMissingTokens", owner, start, end)))
}

// MaxBatchSize invokes `maxBatchSize` method of contract.
func (c *ContractReader) MaxBatchSize() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "maxBatchSize"))
}

// Owner invokes `owner` method of contract.
func (c *ContractReader) Owner() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "owner"))
}

// Registry invokes `registry` method of contract.
func (c *ContractReader) Registry() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "registry"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// BatchTransfer creates a transaction invoking `batchTransfer` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) BatchTransfer(from util.Uint160, to util.Uint160, start *big.Int, end *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "batchTransfer", from, to, start, end)
}

// BatchTransferTransaction creates a transaction invoking `batchTransfer` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) BatchTransferTransaction(from util.Uint160, to util.Uint160, start *big.Int, end *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "batchTransfer", from, to, start, end)
}

// BatchTransferUnsigned creates a transaction invoking `batchTransfer` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) BatchTransferUnsigned(from util.Uint160, to util.Uint160, start *big.Int, end *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "batchTransfer", nil, from, to, start, end)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, nefFile, manifest, data)
}

// itemToBigIntArray converts stack item into []*big.Int.
func itemToBigIntArray(item stackitem.Item, err error) ([]*big.Int, error) {
	if err != nil {
		return nil, err
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	res := make([]*big.Int, len(arr))
	for i := range res {
		res[i], err = arr[i].TryInteger()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return res, nil
}

// BatchTransferEventsFromApplicationLog retrieves a set of all emitted events
// with "BatchTransfer" name from the provided [result.ApplicationLog].
func BatchTransferEventsFromApplicationLog(log *result.ApplicationLog) ([]*BatchTransferEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*BatchTransferEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "BatchTransfer" {
				continue
			}
			event := new(BatchTransferEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize BatchTransferEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to BatchTransferEvent or
// returns an error if it's not possible to do to so.
func (e *BatchTransferEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 4 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.From, err = itemToUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field From: %w", err)
	}

	index++
	e.To, err = itemToUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field To: %w", err)
	}

	index++
	e.Start, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Start: %w", err)
	}

	index++
	e.End, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field End: %w", err)
	}

	return nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}
