/*
Package deploy synchronizes BatchTransfer contract with the Neo blockchain.

Deploy puts the compiled contract on chain if it is missing there, or updates
its code if the on-chain NEF differs from the provided one. Configuration of
the deployed contract (registry and batch size limit) is immutable, so
mismatching values are reported but not changed.
*/
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/batchtransfer-contract/contracts"
	"github.com/nspcc-dev/batchtransfer-contract/rpc/batchtransfer"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// Prm groups all parameters of the deployment procedure.
type Prm struct {
	// Writes progress into the log. Optional: no logs by default.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy the contract to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// Unless Address is set, its script hash together with the contract NEF
	// and name determines the contract address.
	LocalAccount *wallet.Account

	// Compiled BatchTransfer contract.
	Contract contracts.Contract

	// Address of the already deployed contract. Optional: by default the
	// address is derived from LocalAccount and Contract, which matches only
	// the code deployed first. Must be set to update the contract code.
	Address util.Uint160

	// Address of the asset registry contract. Must be deployed already.
	Registry util.Uint160

	// Maximum number of assets moved by a single transfer. Must be positive.
	MaxBatchSize int64

	// Account allowed to update the contract and to move approved assets on
	// behalf of their holders. Zero value makes LocalAccount the owner.
	Owner util.Uint160
}

var (
	errMissingBlockchain = errors.New("missing blockchain")
	errMissingAccount    = errors.New("missing local account")
	errMissingRegistry   = errors.New("missing registry address")
	errInvalidBatchSize  = errors.New("non-positive max batch size")
)

func (prm Prm) validate() error {
	switch {
	case prm.Blockchain == nil:
		return errMissingBlockchain
	case prm.LocalAccount == nil:
		return errMissingAccount
	case prm.Registry.Equals(util.Uint160{}):
		return errMissingRegistry
	case prm.MaxBatchSize <= 0:
		return errInvalidBatchSize
	}
	return nil
}

// deployData builds the argument for _deploy method of the contract.
func deployData(prm Prm) []any {
	var owner any
	if !prm.Owner.Equals(util.Uint160{}) {
		owner = prm.Owner
	}
	return []any{prm.Registry, prm.MaxBatchSize, owner}
}

// ContractAddress returns the address the contract gets when deployed by the
// given sender.
func ContractAddress(sender util.Uint160, c contracts.Contract) util.Uint160 {
	return state.CreateContractHash(sender, c.NEF.Checksum, c.Manifest.Name)
}

// Deploy makes the BatchTransfer contract from Prm available on the chain and
// returns its address. Already deployed contract is updated only if its NEF
// checksum differs, so Deploy can be called repeatedly.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	if err := prm.validate(); err != nil {
		return util.Uint160{}, fmt.Errorf("invalid parameters: %w", err)
	}

	l := prm.Logger
	if l == nil {
		l = zap.NewNop()
	}

	act, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	explicitAddr := !prm.Address.Equals(util.Uint160{})

	addr := prm.Address
	if !explicitAddr {
		addr = ContractAddress(prm.LocalAccount.ScriptHash(), prm.Contract)
	}
	l = l.With(zap.Stringer("address", addr))

	onChain, err := prm.Blockchain.GetContractStateByHash(addr)
	if err != nil {
		if !isErrContractNotFound(err) {
			return addr, fmt.Errorf("get contract state by address: %w", err)
		}
		if explicitAddr {
			return addr, fmt.Errorf("contract %s is missing on the chain", addr.StringLE())
		}

		l.Info("contract is missing on the chain, deploying...")

		err = deployContract(ctx, act, prm)
		if err != nil {
			return addr, err
		}

		l.Info("contract successfully deployed",
			zap.Stringer("registry", prm.Registry), zap.Int64("max batch size", prm.MaxBatchSize))

		return addr, nil
	}

	if !needsUpdate(onChain, prm.Contract) {
		l.Info("contract is already up to date")
	} else {
		l.Info("contract differs from the provided one, updating...",
			zap.Uint32("on-chain checksum", onChain.NEF.Checksum),
			zap.Uint32("new checksum", prm.Contract.NEF.Checksum))

		err = updateContract(ctx, act, addr, prm.Contract)
		if err != nil {
			return addr, err
		}

		l.Info("contract successfully updated")
	}

	warnConfigMismatch(l, batchtransfer.NewReader(act, addr), prm)

	return addr, nil
}

func deployContract(ctx context.Context, act *actor.Actor, prm Prm) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := act.Wait(management.New(act).Deploy(&prm.Contract.NEF, &prm.Contract.Manifest, deployData(prm)))
	if err != nil {
		return fmt.Errorf("send deploy transaction: %w", err)
	}

	err = batchtransfer.CheckExecResult(res)
	if err != nil {
		return fmt.Errorf("deploy transaction failed: %w", err)
	}

	return nil
}

func updateContract(ctx context.Context, act *actor.Actor, addr util.Uint160, c contracts.Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bNEF, err := c.NEF.Bytes()
	if err != nil {
		return fmt.Errorf("encode NEF: %w", err)
	}

	jManifest, err := json.Marshal(&c.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest into JSON: %w", err)
	}

	res, err := act.Wait(batchtransfer.New(act, addr).Update(bNEF, jManifest, nil))
	if err != nil {
		return fmt.Errorf("send update transaction: %w", err)
	}

	err = batchtransfer.CheckExecResult(res)
	if err != nil {
		return fmt.Errorf("update transaction failed: %w", err)
	}

	return nil
}

// needsUpdate checks whether on-chain contract code differs from the given one.
func needsUpdate(onChain *state.Contract, c contracts.Contract) bool {
	return onChain.NEF.Checksum != c.NEF.Checksum
}

// configReader is a subset of batchtransfer.ContractReader used to compare
// deployed configuration.
type configReader interface {
	Registry() (util.Uint160, error)
	MaxBatchSize() (*big.Int, error)
}

func warnConfigMismatch(l *zap.Logger, r configReader, prm Prm) {
	registry, err := r.Registry()
	if err != nil {
		l.Warn("failed to read registry of the deployed contract", zap.Error(err))
	} else if !registry.Equals(prm.Registry) {
		l.Warn("deployed contract uses different registry, it can't be changed",
			zap.Stringer("deployed", registry), zap.Stringer("requested", prm.Registry))
	}

	maxBatchSize, err := r.MaxBatchSize()
	if err != nil {
		l.Warn("failed to read max batch size of the deployed contract", zap.Error(err))
	} else if !maxBatchSize.IsInt64() || maxBatchSize.Int64() != prm.MaxBatchSize {
		l.Warn("deployed contract uses different max batch size, it can't be changed",
			zap.Stringer("deployed", maxBatchSize), zap.Int64("requested", prm.MaxBatchSize))
	}
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(err.Error(), "Unknown contract")
}
