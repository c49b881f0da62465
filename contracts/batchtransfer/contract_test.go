package batchtransfer_test

import (
	"encoding/json"
	"math/big"
	"path"
	"testing"

	"github.com/nspcc-dev/batchtransfer-contract/common"
	"github.com/nspcc-dev/batchtransfer-contract/contracts/batchtransfer/batchconst"
	batchrpc "github.com/nspcc-dev/batchtransfer-contract/rpc/batchtransfer"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const (
	ctrPath      = "."
	registryPath = "../../internal/testcontracts/assetregistry"

	defaultMaxBatchSize = 5
)

type testEnv struct {
	e        *neotest.Executor
	registry *neotest.Contract
	engine   *neotest.Contract

	minted int64
}

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

func compileContracts(t *testing.T, e *neotest.Executor) (registry, engine *neotest.Contract) {
	registry = neotest.CompileFile(t, e.CommitteeHash, registryPath, path.Join(registryPath, "config.yml"))
	engine = neotest.CompileFile(t, e.CommitteeHash, ctrPath, path.Join(ctrPath, "config.yml"))
	return registry, engine
}

func newTestEnv(t *testing.T, maxBatchSize int64) *testEnv {
	e := newExecutor(t)
	registry, engine := compileContracts(t, e)

	e.DeployContract(t, registry, nil)
	e.DeployContract(t, engine, []any{registry.Hash, maxBatchSize, nil})

	return &testEnv{e: e, registry: registry, engine: engine}
}

func (x *testEnv) engineInvoker(signers ...neotest.Signer) *neotest.ContractInvoker {
	return x.e.NewInvoker(x.engine.Hash, signers...)
}

func (x *testEnv) registryInvoker(signers ...neotest.Signer) *neotest.ContractInvoker {
	return x.e.NewInvoker(x.registry.Hash, signers...)
}

// mint creates n assets owned by owner and returns their IDs.
func (x *testEnv) mint(t *testing.T, owner neotest.Signer, n int) []int64 {
	inv := x.e.CommitteeInvoker(x.registry.Hash)

	ids := make([]int64, n)
	for i := range ids {
		x.minted++
		inv.Invoke(t, x.minted, "mint", owner.ScriptHash())
		ids[i] = x.minted
	}
	return ids
}

func (x *testEnv) approve(t *testing.T, owner neotest.Signer, ids ...int64) {
	inv := x.registryInvoker(owner)
	for _, id := range ids {
		inv.Invoke(t, stackitem.Null{}, "approve", x.engine.Hash, id)
	}
}

func (x *testEnv) transferDirectly(t *testing.T, from, to neotest.Signer, id int64) {
	x.registryInvoker(from).Invoke(t, true, "transferFrom", from.ScriptHash(), to.ScriptHash(), id)
}

func (x *testEnv) requireOwner(t *testing.T, owner neotest.Signer, ids ...int64) {
	inv := x.e.CommitteeInvoker(x.registry.Hash)
	for _, id := range ids {
		stack, err := inv.TestInvoke(t, "ownerOf", id)
		require.NoError(t, err)

		b, err := stack.Pop().Item().TryBytes()
		require.NoError(t, err)

		actual, err := util.Uint160DecodeBytesBE(b)
		require.NoError(t, err)
		require.Equal(t, owner.ScriptHash(), actual, "owner of asset #%d", id)
	}
}

func (x *testEnv) missingTokens(t *testing.T, owner util.Uint160, start, end any) []*big.Int {
	stack, err := x.engineInvoker(x.e.Committee).TestInvoke(t, "getMissingTokens", owner, start, end)
	require.NoError(t, err)

	arr, ok := stack.Pop().Item().Value().([]stackitem.Item)
	require.True(t, ok)

	res := make([]*big.Int, len(arr))
	for i := range arr {
		res[i], err = arr[i].TryInteger()
		require.NoError(t, err)
	}
	return res
}

func requireInts(t *testing.T, expected []int64, actual []*big.Int) {
	require.Len(t, actual, len(expected))
	for i := range expected {
		require.EqualValues(t, expected[i], actual[i].Int64(), i)
	}
}

func batchTransferEvents(t *testing.T, e *neotest.Executor, h util.Uint256) []*batchrpc.BatchTransferEvent {
	aer := e.GetTxExecResult(t, h)

	evs, err := batchrpc.BatchTransferEventsFromApplicationLog(&result.ApplicationLog{
		Container:  h,
		Executions: []state.Execution{aer.Execution},
	})
	require.NoError(t, err)
	return evs
}

// maxInteger is the largest NeoVM integer.
var maxInteger = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))

func ownershipError(id int64) string {
	return batchconst.ErrTokenOwnership + ": id " + big.NewInt(id).String()
}

func TestDeploy(t *testing.T) {
	t.Run("configuration", func(t *testing.T) {
		x := newTestEnv(t, defaultMaxBatchSize)
		inv := x.engineInvoker(x.e.Committee)

		inv.Invoke(t, defaultMaxBatchSize, "maxBatchSize")
		inv.Invoke(t, stackitem.NewBuffer(x.registry.Hash.BytesBE()), "registry")
		inv.Invoke(t, stackitem.NewBuffer(x.e.CommitteeHash.BytesBE()), "owner")
		inv.Invoke(t, common.Version, "version")
	})

	t.Run("explicit owner", func(t *testing.T) {
		e := newExecutor(t)
		registry, engine := compileContracts(t, e)
		owner := e.NewAccount(t)

		e.DeployContract(t, registry, nil)
		e.DeployContract(t, engine, []any{registry.Hash, int64(3), owner.ScriptHash()})

		e.CommitteeInvoker(engine.Hash).Invoke(t, stackitem.NewBuffer(owner.ScriptHash().BytesBE()), "owner")
	})

	t.Run("invalid parameters", func(t *testing.T) {
		e := newExecutor(t)
		registry, engine := compileContracts(t, e)
		e.DeployContract(t, registry, nil)

		e.DeployContractCheckFAULT(t, engine, nil, batchconst.ErrInvalidConfig)
		e.DeployContractCheckFAULT(t, engine, []any{registry.Hash}, batchconst.ErrInvalidConfig)
		e.DeployContractCheckFAULT(t, engine, []any{registry.Hash, int64(0), nil}, "invalid batch size")
		e.DeployContractCheckFAULT(t, engine, []any{registry.Hash, int64(-5), nil}, "invalid batch size")
		e.DeployContractCheckFAULT(t, engine, []any{[]byte{1, 2, 3}, int64(5), nil}, "invalid registry address")
		e.DeployContractCheckFAULT(t, engine, []any{util.Uint160{1, 2, 3}, int64(5), nil}, "registry contract not found")
		e.DeployContractCheckFAULT(t, engine, []any{registry.Hash, int64(5), []byte{1}}, "invalid owner address")
	})
}

func TestUpdate(t *testing.T) {
	x := newTestEnv(t, defaultMaxBatchSize)

	bNEF, err := x.engine.NEF.Bytes()
	require.NoError(t, err)

	jManifest, err := json.Marshal(x.engine.Manifest)
	require.NoError(t, err)

	stranger := x.e.NewAccount(t)
	x.engineInvoker(stranger).InvokeFail(t, common.ErrOwnerWitnessFailed, "update", bNEF, jManifest, nil)

	x.engineInvoker(x.e.Committee).InvokeFail(t, common.ErrAlreadyUpdated, "update", bNEF, jManifest, nil)
}

func TestBatchTransfer(t *testing.T) {
	x := newTestEnv(t, defaultMaxBatchSize)
	a, b := x.e.NewAccount(t), x.e.NewAccount(t)

	ids := x.mint(t, a, 5)
	x.approve(t, a, ids...)
	x.requireOwner(t, a, ids...)

	h := x.engineInvoker(a).Invoke(t, stackitem.Null{}, "batchTransfer", a.ScriptHash(), b.ScriptHash(), 1, 5)

	x.requireOwner(t, b, ids...)

	evs := batchTransferEvents(t, x.e, h)
	require.Len(t, evs, 1)
	require.Equal(t, a.ScriptHash(), evs[0].From)
	require.Equal(t, b.ScriptHash(), evs[0].To)
	require.EqualValues(t, 1, evs[0].Start.Int64())
	require.EqualValues(t, 5, evs[0].End.Int64())

	t.Run("approvals are consumed", func(t *testing.T) {
		x.engineInvoker(b).InvokeFail(t, ownershipError(1), "batchTransfer", b.ScriptHash(), a.ScriptHash(), 1, 5)
		x.requireOwner(t, b, ids...)
	})
}

func TestBatchTransferSubrange(t *testing.T) {
	x := newTestEnv(t, defaultMaxBatchSize)
	a, b := x.e.NewAccount(t), x.e.NewAccount(t)

	ids := x.mint(t, a, 5)
	x.approve(t, a, ids...)

	h := x.engineInvoker(a).Invoke(t, stackitem.Null{}, "batchTransfer", a.ScriptHash(), b.ScriptHash(), 2, 4)
	x.requireOwner(t, a, 1, 5)
	x.requireOwner(t, b, 2, 3, 4)

	evs := batchTransferEvents(t, x.e, h)
	require.Len(t, evs, 1)
	require.EqualValues(t, 2, evs[0].Start.Int64())
	require.EqualValues(t, 4, evs[0].End.Int64())

	// single asset batch
	x.engineInvoker(a).Invoke(t, stackitem.Null{}, "batchTransfer", a.ScriptHash(), b.ScriptHash(), 5, 5)
	x.requireOwner(t, b, 5)
	x.requireOwner(t, a, 1)
}

func TestBatchTransferInvalidRange(t *testing.T) {
	x := newTestEnv(t, defaultMaxBatchSize)
	a, b := x.e.NewAccount(t), x.e.NewAccount(t)

	ids := x.mint(t, a, 5)
	x.approve(t, a, ids...)
	inv := x.engineInvoker(a)

	for _, tc := range []struct {
		start, end int64
	}{
		{start: 3, end: 1},
		{start: 1, end: 0}, // empty
		{start: 5, end: 4}, // empty
		{start: 100, end: 1},
		{start: -1, end: 2},
	} {
		msg := batchconst.ErrInvalidRange + ": start " + big.NewInt(tc.start).String() + ", end " + big.NewInt(tc.end).String()
		inv.InvokeFail(t, msg, "batchTransfer", a.ScriptHash(), b.ScriptHash(), tc.start, tc.end)
	}

	x.requireOwner(t, a, ids...)
}

func TestBatchTransferBatchSize(t *testing.T) {
	x := newTestEnv(t, defaultMaxBatchSize)
	a, b := x.e.NewAccount(t), x.e.NewAccount(t)

	ids := x.mint(t, a, 6)
	x.approve(t, a, ids...)
	inv := x.engineInvoker(a)

	inv.InvokeFail(t, batchconst.ErrBatchSizeExceeded+": width 6, limit 5", "batchTransfer",
		a.ScriptHash(), b.ScriptHash(), 1, 6)
	x.requireOwner(t, a, ids...)

	// exactly the limit
	inv.Invoke(t, stackitem.Null{}, "batchTransfer", a.ScriptHash(), b.ScriptHash(), 2, 6)
	x.requireOwner(t, b, 2, 3, 4, 5, 6)
	x.requireOwner(t, a, 1)

	t.Run("integer bounds", func(t *testing.T) {
		width := new(big.Int).Add(maxInteger, big.NewInt(1))
		inv.InvokeFail(t, batchconst.ErrBatchSizeExceeded+": width "+width.String()+", limit 5", "batchTransfer",
			a.ScriptHash(), b.ScriptHash(), 0, maxInteger)

		inv.InvokeFail(t, batchconst.ErrBatchSizeExceeded+": width 10, limit 5", "batchTransfer",
			a.ScriptHash(), b.ScriptHash(), 1, 10)

		start := new(big.Int).Sub(maxInteger, big.NewInt(1))
		inv.InvokeFail(t, batchconst.ErrTokenOwnership+": id "+start.String(), "batchTransfer",
			a.ScriptHash(), b.ScriptHash(), start, maxInteger)
		inv.InvokeFail(t, batchconst.ErrTokenOwnership+": id "+maxInteger.String(), "batchTransfer",
			a.ScriptHash(), b.ScriptHash(), maxInteger, maxInteger)
	})
}

func TestBatchTransferOwnership(t *testing.T) {
	t.Run("foreign asset in the middle", func(t *testing.T) {
		x := newTestEnv(t, defaultMaxBatchSize)
		a, b, c := x.e.NewAccount(t), x.e.NewAccount(t), x.e.NewAccount(t)

		ids := x.mint(t, a, 5)
		x.approve(t, a, ids...)
		x.transferDirectly(t, a, c, 2)

		x.engineInvoker(a).InvokeFail(t, ownershipError(2), "batchTransfer", a.ScriptHash(), b.ScriptHash(), 1, 3)

		x.requireOwner(t, a, 1, 3, 4, 5)
		x.requireOwner(t, c, 2)
	})

	t.Run("approved only owned assets", func(t *testing.T) {
		x := newTestEnv(t, defaultMaxBatchSize)
		a, b, c := x.e.NewAccount(t), x.e.NewAccount(t), x.e.NewAccount(t)

		x.mint(t, a, 5)
		x.transferDirectly(t, a, c, 2)
		x.approve(t, a, 1, 3, 4, 5)

		x.engineInvoker(a).InvokeFail(t, ownershipError(2), "batchTransfer", a.ScriptHash(), b.ScriptHash(), 1, 3)
		x.requireOwner(t, a, 1, 3)
	})

	t.Run("missing approval", func(t *testing.T) {
		x := newTestEnv(t, defaultMaxBatchSize)
		a, b := x.e.NewAccount(t), x.e.NewAccount(t)

		x.mint(t, a, 3)
		x.approve(t, a, 1, 3)

		x.engineInvoker(a).InvokeFail(t, ownershipError(2), "batchTransfer", a.ScriptHash(), b.ScriptHash(), 1, 3)

		// asset #1 was moved before #2 failed, but nothing is persisted
		x.requireOwner(t, a, 1, 2, 3)
	})

	t.Run("revoked approval", func(t *testing.T) {
		x := newTestEnv(t, defaultMaxBatchSize)
		a, b := x.e.NewAccount(t), x.e.NewAccount(t)

		ids := x.mint(t, a, 3)
		x.approve(t, a, ids...)
		x.registryInvoker(a).Invoke(t, stackitem.Null{}, "approve", nil, 3)

		x.engineInvoker(a).InvokeFail(t, ownershipError(3), "batchTransfer", a.ScriptHash(), b.ScriptHash(), 1, 3)
		x.requireOwner(t, a, ids...)
	})

	t.Run("nonexistent asset", func(t *testing.T) {
		x := newTestEnv(t, defaultMaxBatchSize)
		a, b := x.e.NewAccount(t), x.e.NewAccount(t)

		ids := x.mint(t, a, 4)
		x.approve(t, a, ids...)
		x.registryInvoker(a).Invoke(t, stackitem.Null{}, "burn", 4)

		x.engineInvoker(a).InvokeFail(t, ownershipError(4), "batchTransfer", a.ScriptHash(), b.ScriptHash(), 3, 4)
		x.engineInvoker(a).InvokeFail(t, ownershipError(5), "batchTransfer", a.ScriptHash(), b.ScriptHash(), 5, 7)
		x.engineInvoker(a).InvokeFail(t, ownershipError(0), "batchTransfer", a.ScriptHash(), b.ScriptHash(), 0, 2)
		x.requireOwner(t, a, 1, 2, 3)
	})
}

func TestBatchTransferWitness(t *testing.T) {
	x := newTestEnv(t, defaultMaxBatchSize)
	a, b := x.e.NewAccount(t), x.e.NewAccount(t)
	stranger := x.e.NewAccount(t)

	ids := x.mint(t, a, 4)
	x.approve(t, a, ids...)

	x.engineInvoker(stranger).InvokeFail(t, batchconst.ErrNotWitnessed, "batchTransfer",
		a.ScriptHash(), stranger.ScriptHash(), 1, 2)
	x.engineInvoker(b).InvokeFail(t, batchconst.ErrNotWitnessed, "batchTransfer",
		a.ScriptHash(), b.ScriptHash(), 1, 2)
	x.requireOwner(t, a, ids...)

	t.Run("contract owner", func(t *testing.T) {
		x.engineInvoker(x.e.Committee).Invoke(t, stackitem.Null{}, "batchTransfer", a.ScriptHash(), b.ScriptHash(), 1, 2)
		x.requireOwner(t, b, 1, 2)
		x.requireOwner(t, a, 3, 4)
	})

	t.Run("invalid parties", func(t *testing.T) {
		inv := x.engineInvoker(a)
		inv.InvokeFail(t, batchconst.ErrInvalidParty, "batchTransfer", []byte{1, 2, 3}, b.ScriptHash(), 3, 4)
		inv.InvokeFail(t, batchconst.ErrInvalidParty, "batchTransfer", a.ScriptHash(), nil, 3, 4)
	})
}

func TestGetMissingTokens(t *testing.T) {
	x := newTestEnv(t, defaultMaxBatchSize)
	a, c := x.e.NewAccount(t), x.e.NewAccount(t)

	x.mint(t, a, 5)
	x.transferDirectly(t, a, c, 2)
	x.transferDirectly(t, a, c, 4)

	requireInts(t, []int64{2, 4}, x.missingTokens(t, a.ScriptHash(), 1, 5))
	requireInts(t, []int64{2, 4}, x.missingTokens(t, a.ScriptHash(), 1, 5))
	requireInts(t, []int64{1, 3, 5}, x.missingTokens(t, c.ScriptHash(), 1, 5))
	requireInts(t, []int64{}, x.missingTokens(t, a.ScriptHash(), 3, 3))

	x.requireOwner(t, a, 1, 3, 5)
	x.requireOwner(t, c, 2, 4)

	t.Run("empty range", func(t *testing.T) {
		requireInts(t, []int64{}, x.missingTokens(t, a.ScriptHash(), 5, 1))
	})

	t.Run("wider than batch limit", func(t *testing.T) {
		requireInts(t, []int64{0, 2, 4, 6, 7, 8, 9, 10, 11, 12}, x.missingTokens(t, a.ScriptHash(), 0, 12))
	})

	t.Run("nonexistent assets", func(t *testing.T) {
		x.registryInvoker(a).Invoke(t, stackitem.Null{}, "burn", 5)
		requireInts(t, []int64{2, 4, 5, 6}, x.missingTokens(t, a.ScriptHash(), 1, 6))
	})

	t.Run("largest integer", func(t *testing.T) {
		start := new(big.Int).Sub(maxInteger, big.NewInt(1))

		missing := x.missingTokens(t, a.ScriptHash(), start, maxInteger)
		require.Len(t, missing, 2)
		require.Zero(t, start.Cmp(missing[0]))
		require.Zero(t, maxInteger.Cmp(missing[1]))

		missing = x.missingTokens(t, a.ScriptHash(), maxInteger, maxInteger)
		require.Len(t, missing, 1)
		require.Zero(t, maxInteger.Cmp(missing[0]))
	})

	t.Run("huge IDs", func(t *testing.T) {
		start := new(big.Int).Lsh(big.NewInt(1), 200)
		end := new(big.Int).Add(start, big.NewInt(2))

		missing := x.missingTokens(t, a.ScriptHash(), start, end)
		require.Len(t, missing, 3)
		for i := range missing {
			require.Zero(t, new(big.Int).Add(start, big.NewInt(int64(i))).Cmp(missing[i]))
		}
	})

	t.Run("invalid owner", func(t *testing.T) {
		x.engineInvoker(a).InvokeFail(t, batchconst.ErrInvalidParty, "getMissingTokens", []byte{1}, 1, 5)
	})
}
