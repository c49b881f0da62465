package batchtransfer

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
)

type testInvoker struct {
	operation string
	params    []any
	res       *result.Invoke
	err       error
}

func (x *testInvoker) Call(_ util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	x.operation = operation
	x.params = params
	return x.res, x.err
}

func haltWith(item stackitem.Item) *result.Invoke {
	return &result.Invoke{
		State: vmstate.Halt.String(),
		Stack: []stackitem.Item{item},
	}
}

func TestContractReader(t *testing.T) {
	var (
		inv   testInvoker
		owner = util.Uint160{1, 2, 3}
		r     = NewReader(&inv, util.Uint160{9})
	)

	inv.res = haltWith(stackitem.Make([]any{2, 4}))
	ids, err := r.GetMissingTokens(owner, big.NewInt(1), big.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, "getMissingTokens", inv.operation)
	require.Equal(t, []any{owner, big.NewInt(1), big.NewInt(5)}, inv.params)
	require.Equal(t, bigs(2, 4), ids)

	inv.res = haltWith(stackitem.NewArray([]stackitem.Item{}))
	ids, err = r.GetMissingTokens(owner, big.NewInt(1), big.NewInt(5))
	require.NoError(t, err)
	require.Empty(t, ids)

	inv.res = haltWith(stackitem.Make(5))
	limit, err := r.MaxBatchSize()
	require.NoError(t, err)
	require.EqualValues(t, 5, limit.Int64())

	inv.res = haltWith(stackitem.NewByteArray(owner.BytesBE()))
	o, err := r.Owner()
	require.NoError(t, err)
	require.Equal(t, owner, o)

	inv.res = haltWith(stackitem.NewByteArray(owner.BytesBE()))
	reg, err := r.Registry()
	require.NoError(t, err)
	require.Equal(t, "registry", inv.operation)
	require.Equal(t, owner, reg)

	inv.res = haltWith(stackitem.Make(2000))
	v, err := r.Version()
	require.NoError(t, err)
	require.EqualValues(t, 2000, v.Int64())

	inv.res = haltWith(stackitem.Make(1))
	_, err = r.GetMissingTokens(owner, big.NewInt(1), big.NewInt(5))
	require.Error(t, err)

	inv.res, inv.err = nil, errors.New("connection lost")
	_, err = r.GetMissingTokens(owner, big.NewInt(1), big.NewInt(5))
	require.Error(t, err)
}

func TestBatchTransferEventsFromApplicationLog(t *testing.T) {
	_, err := BatchTransferEventsFromApplicationLog(nil)
	require.Error(t, err)

	var (
		from = util.Uint160{1}
		to   = util.Uint160{2}
	)

	log := &result.ApplicationLog{
		Executions: []state.Execution{{
			Events: []state.NotificationEvent{
				{Name: "Transfer", Item: stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})},
				{Name: "BatchTransfer", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.NewByteArray(from.BytesBE()),
					stackitem.NewByteArray(to.BytesBE()),
					stackitem.Make(1),
					stackitem.Make(5),
				})},
			},
		}},
	}

	evs, err := BatchTransferEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, from, evs[0].From)
	require.Equal(t, to, evs[0].To)
	require.EqualValues(t, 1, evs[0].Start.Int64())
	require.EqualValues(t, 5, evs[0].End.Int64())

	log.Executions[0].Events[1].Item = stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	_, err = BatchTransferEventsFromApplicationLog(log)
	require.Error(t, err)

	var ev BatchTransferEvent
	require.Error(t, ev.FromStackItem(nil))
	require.Error(t, ev.FromStackItem(stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteArray([]byte{1, 2, 3}),
		stackitem.NewByteArray(to.BytesBE()),
		stackitem.Make(1),
		stackitem.Make(5),
	})))
}
