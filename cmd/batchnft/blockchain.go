package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/batchtransfer-contract/rpc/batchtransfer"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// wrapper over Neo RPC client providing services needed for the commands.
type remoteBlockchain struct {
	rpc *rpcclient.Client
}

// newRemoteBlockchain dials Neo RPC server and returns remoteBlockchain based
// on the opened connection. Connection and all requests are limited by the
// configured timeout.
func newRemoteBlockchain(ctx context.Context, cfg config) (*remoteBlockchain, error) {
	if cfg.RPCEndpoint == "" {
		return nil, errors.New("missing Neo RPC endpoint")
	}

	c, err := rpcclient.New(ctx, cfg.RPCEndpoint, rpcclient.Options{
		DialTimeout:    cfg.Timeout,
		RequestTimeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init RPC client: %w", err)
	}

	return &remoteBlockchain{rpc: c}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// reader returns read-only client of the BatchTransfer contract. No account
// is needed for it.
func (x *remoteBlockchain) reader(contract util.Uint160) *batchtransfer.ContractReader {
	return batchtransfer.NewReader(invoker.New(x.rpc, nil), contract)
}

// actor returns transaction sender signing with the given account using
// CalledByEntry scope.
func (x *remoteBlockchain) actor(acc *wallet.Account) (*actor.Actor, error) {
	act, err := actor.NewSimple(x.rpc, acc)
	if err != nil {
		return nil, fmt.Errorf("init actor: %w", err)
	}
	return act, nil
}

// openAccount reads the wallet file and decrypts either the account with the
// given address or the default one.
func openAccount(walletPath, addr, password string) (*wallet.Account, error) {
	if walletPath == "" {
		return nil, errors.New("missing wallet path")
	}

	w, err := wallet.NewWalletFromFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	var acc *wallet.Account
	if addr != "" {
		h, err := parseUint160(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid account: %w", err)
		}
		acc = w.GetAccount(h)
		if acc == nil {
			return nil, fmt.Errorf("account %s not found in the wallet", addr)
		}
	} else {
		if len(w.Accounts) == 0 {
			return nil, errors.New("wallet has no accounts")
		}
		acc = w.Accounts[0]
		for _, a := range w.Accounts {
			if a.Default {
				acc = a
				break
			}
		}
	}

	err = acc.Decrypt(password, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", acc.Address, err)
	}

	return acc, nil
}
