package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/batchtransfer-contract/contracts"
	"github.com/nspcc-dev/batchtransfer-contract/deploy"
	"github.com/nspcc-dev/batchtransfer-contract/rpc/batchtransfer"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	registryFlag = &cli.StringFlag{
		Name:  "registry",
		Usage: "address or script hash of the asset registry contract",
	}
	maxBatchSizeFlag = &cli.Int64Flag{
		Name:  "max-batch-size",
		Usage: "maximum number of assets moved by a single transfer",
	}
	ownerFlag = &cli.StringFlag{
		Name:  "owner",
		Usage: "account owning the assets (contract owner for deploy)",
	}
	artifactsFlag = &cli.StringFlag{
		Name:  "artifacts",
		Usage: "directory with compiled contract.nef and manifest.json",
	}
	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "current owner of the assets, signing account if not set",
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "receiver of the assets",
		Required: true,
	}
	startFlag = &cli.StringFlag{
		Name:     "start",
		Usage:    "first asset ID of the inclusive range",
		Required: true,
	}
	endFlag = &cli.StringFlag{
		Name:     "end",
		Usage:    "last asset ID of the inclusive range",
		Required: true,
	}
	splitFlag = &cli.BoolFlag{
		Name:  "split",
		Usage: "split range wider than the contract limit into several transactions, each of them is atomic on its own",
	}
)

var deployCommand = cli.Command{
	Name:   "deploy",
	Usage:  "Deploy BatchTransfer contract or update its code",
	Flags:  []cli.Flag{registryFlag, maxBatchSizeFlag, ownerFlag, artifactsFlag, passwordFlag},
	Action: runDeploy,
}

var transferCommand = cli.Command{
	Name:   "transfer",
	Usage:  "Transfer all assets of the ID range in one transaction",
	Flags:  []cli.Flag{fromFlag, toFlag, startFlag, endFlag, splitFlag, passwordFlag},
	Action: runTransfer,
}

var missingCommand = cli.Command{
	Name:   "missing",
	Usage:  "List assets of the ID range not owned by the account",
	Flags:  []cli.Flag{ownerFlag, startFlag, endFlag},
	Action: runMissing,
}

var planCommand = cli.Command{
	Name:   "plan",
	Usage:  "Show transfer batches covering assets of the ID range owned by the account",
	Flags:  []cli.Flag{ownerFlag, startFlag, endFlag},
	Action: runPlan,
}

var infoCommand = cli.Command{
	Name:   "info",
	Usage:  "Show BatchTransfer contract configuration",
	Action: runInfo,
}

func runDeploy(ctx *cli.Context) error {
	cfg := appConfig

	if ctx.IsSet(registryFlag.Name) {
		cfg.Registry = ctx.String(registryFlag.Name)
	}
	if ctx.IsSet(maxBatchSizeFlag.Name) {
		cfg.MaxBatchSize = ctx.Int64(maxBatchSizeFlag.Name)
	}
	if ctx.IsSet(artifactsFlag.Name) {
		cfg.Artifacts = ctx.String(artifactsFlag.Name)
	}

	registry, err := parseUint160(cfg.Registry)
	if err != nil {
		return fmt.Errorf("invalid registry: %w", err)
	}

	var owner util.Uint160
	if ctx.IsSet(ownerFlag.Name) {
		owner, err = parseUint160(ctx.String(ownerFlag.Name))
		if err != nil {
			return fmt.Errorf("invalid owner: %w", err)
		}
	}

	// configured contract is updated, otherwise a new one is deployed
	var addr util.Uint160
	if cfg.Contract != "" {
		addr, err = parseUint160(cfg.Contract)
		if err != nil {
			return fmt.Errorf("invalid contract: %w", err)
		}
	}

	ctr, err := contracts.ReadDir(cfg.Artifacts)
	if err != nil {
		return err
	}

	acc, err := openAccount(cfg.Wallet, cfg.Account, ctx.String(passwordFlag.Name))
	if err != nil {
		return err
	}

	b, err := newRemoteBlockchain(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	addr, err = deploy.Deploy(ctx.Context, deploy.Prm{
		Logger:       logger,
		Blockchain:   b.rpc,
		LocalAccount: acc,
		Contract:     ctr,
		Address:      addr,
		Registry:     registry,
		MaxBatchSize: cfg.MaxBatchSize,
		Owner:        owner,
	})
	if err != nil {
		return fmt.Errorf("deploy contract: %w", err)
	}

	fmt.Fprintln(ctx.App.Writer, addr.StringLE())
	return nil
}

func runTransfer(ctx *cli.Context) error {
	cfg := appConfig

	contract, err := parseUint160(cfg.Contract)
	if err != nil {
		return fmt.Errorf("invalid contract: %w", err)
	}

	to, err := parseUint160(ctx.String(toFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid receiver: %w", err)
	}

	start, end, err := rangeFlags(ctx)
	if err != nil {
		return err
	}

	acc, err := openAccount(cfg.Wallet, cfg.Account, ctx.String(passwordFlag.Name))
	if err != nil {
		return err
	}

	from := acc.ScriptHash()
	if ctx.IsSet(fromFlag.Name) {
		from, err = parseUint160(ctx.String(fromFlag.Name))
		if err != nil {
			return fmt.Errorf("invalid sender: %w", err)
		}
	}

	b, err := newRemoteBlockchain(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	act, err := b.actor(acc)
	if err != nil {
		return err
	}

	bt := batchtransfer.New(act, contract)

	maxBatchSize, err := bt.MaxBatchSize()
	if err != nil {
		return fmt.Errorf("get max batch size: %w", err)
	}

	batches, err := transferBatches(start, end, maxBatchSize, ctx.Bool(splitFlag.Name))
	if err != nil {
		return err
	}

	for i, r := range batches {
		res, err := act.Wait(bt.BatchTransfer(from, to, r.Start, r.End))
		if err != nil {
			return fmt.Errorf("batch #%d [%s, %s]: send transaction: %w", i, r.Start, r.End, err)
		}

		err = batchtransfer.CheckExecResult(res)
		if err != nil {
			return fmt.Errorf("batch #%d [%s, %s]: %w", i, r.Start, r.End, err)
		}

		evs, err := batchtransfer.BatchTransferEventsFromApplicationLog(&result.ApplicationLog{
			Container:  res.Container,
			Executions: []state.Execution{res.Execution},
		})
		if err != nil {
			return fmt.Errorf("batch #%d: parse notifications: %w", i, err)
		}

		for _, ev := range evs {
			logger.Info("assets transferred",
				zap.Stringer("tx", res.Container),
				zap.Stringer("from", ev.From), zap.Stringer("to", ev.To),
				zap.Stringer("start", ev.Start), zap.Stringer("end", ev.End))
		}

		fmt.Fprintf(ctx.App.Writer, "%s\t%s\t%s\n", r.Start, r.End, res.Container.StringLE())
	}

	return nil
}

// transferBatches returns ranges transferred one per transaction.
func transferBatches(start, end, maxBatchSize *big.Int, split bool) ([]batchtransfer.Range, error) {
	if split {
		return batchtransfer.SplitRange(start, end, maxBatchSize)
	}

	err := batchtransfer.CheckRange(start, end, maxBatchSize)
	if err != nil {
		if errors.Is(err, batchtransfer.ErrBatchSizeExceeded) {
			return nil, fmt.Errorf("%w (use --%s to send several transactions)", err, splitFlag.Name)
		}
		return nil, err
	}

	return []batchtransfer.Range{{Start: start, End: end}}, nil
}

func runMissing(ctx *cli.Context) error {
	owner, start, end, err := readOnlyArgs(ctx)
	if err != nil {
		return err
	}

	b, err := newRemoteBlockchain(ctx.Context, appConfig)
	if err != nil {
		return err
	}
	defer b.close()

	contract, _ := parseUint160(appConfig.Contract)

	missing, err := b.reader(contract).GetMissingTokens(owner, start, end)
	if err != nil {
		return fmt.Errorf("get missing tokens: %w", err)
	}

	logger.Debug("missing assets received", zap.Int("count", len(missing)))

	for _, r := range batchtransfer.CompactRanges(missing) {
		fmt.Fprintln(ctx.App.Writer, formatRange(r))
	}
	return nil
}

func runPlan(ctx *cli.Context) error {
	owner, start, end, err := readOnlyArgs(ctx)
	if err != nil {
		return err
	}

	b, err := newRemoteBlockchain(ctx.Context, appConfig)
	if err != nil {
		return err
	}
	defer b.close()

	contract, _ := parseUint160(appConfig.Contract)
	r := b.reader(contract)

	maxBatchSize, err := r.MaxBatchSize()
	if err != nil {
		return fmt.Errorf("get max batch size: %w", err)
	}

	missing, err := r.GetMissingTokens(owner, start, end)
	if err != nil {
		return fmt.Errorf("get missing tokens: %w", err)
	}

	batches, err := planBatches(start, end, missing, maxBatchSize)
	if err != nil {
		return err
	}

	for _, batch := range batches {
		fmt.Fprintln(ctx.App.Writer, formatRange(batch))
	}
	return nil
}

// planBatches splits owned parts of the range into transferable batches.
func planBatches(start, end *big.Int, missing []*big.Int, maxBatchSize *big.Int) ([]batchtransfer.Range, error) {
	var res []batchtransfer.Range
	for _, owned := range batchtransfer.Exclude(start, end, missing) {
		parts, err := batchtransfer.SplitRange(owned.Start, owned.End, maxBatchSize)
		if err != nil {
			return nil, err
		}
		res = append(res, parts...)
	}
	return res, nil
}

func runInfo(ctx *cli.Context) error {
	contract, err := parseUint160(appConfig.Contract)
	if err != nil {
		return fmt.Errorf("invalid contract: %w", err)
	}

	b, err := newRemoteBlockchain(ctx.Context, appConfig)
	if err != nil {
		return err
	}
	defer b.close()

	r := b.reader(contract)

	registry, err := r.Registry()
	if err != nil {
		return fmt.Errorf("get registry: %w", err)
	}
	maxBatchSize, err := r.MaxBatchSize()
	if err != nil {
		return fmt.Errorf("get max batch size: %w", err)
	}
	owner, err := r.Owner()
	if err != nil {
		return fmt.Errorf("get owner: %w", err)
	}
	version, err := r.Version()
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "Registry:\t%s\n", registry.StringLE())
	fmt.Fprintf(w, "Max batch size:\t%s\n", maxBatchSize)
	fmt.Fprintf(w, "Owner:\t\t%s\n", owner.StringLE())
	fmt.Fprintf(w, "Version:\t%s\n", formatVersion(version))
	return nil
}

// readOnlyArgs parses arguments shared by read-only range commands. Owner
// defaults to the configured account.
func readOnlyArgs(ctx *cli.Context) (util.Uint160, *big.Int, *big.Int, error) {
	if _, err := parseUint160(appConfig.Contract); err != nil {
		return util.Uint160{}, nil, nil, fmt.Errorf("invalid contract: %w", err)
	}

	ownerStr := appConfig.Account
	if ctx.IsSet(ownerFlag.Name) {
		ownerStr = ctx.String(ownerFlag.Name)
	}
	owner, err := parseUint160(ownerStr)
	if err != nil {
		return util.Uint160{}, nil, nil, fmt.Errorf("invalid owner: %w", err)
	}

	start, end, err := rangeFlags(ctx)
	if err != nil {
		return util.Uint160{}, nil, nil, err
	}

	return owner, start, end, nil
}

func rangeFlags(ctx *cli.Context) (*big.Int, *big.Int, error) {
	start, err := parseBigInt(ctx.String(startFlag.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start: %w", err)
	}
	end, err := parseBigInt(ctx.String(endFlag.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end: %w", err)
	}
	return start, end, nil
}

func formatRange(r batchtransfer.Range) string {
	if r.Start.Cmp(r.End) == 0 {
		return r.Start.String()
	}
	return r.Start.String() + "-" + r.End.String()
}

// formatVersion decodes major*1_000_000 + minor*1_000 + patch.
func formatVersion(v *big.Int) string {
	if !v.IsInt64() || v.Sign() < 0 {
		return v.String()
	}
	n := v.Int64()
	return fmt.Sprintf("%d.%d.%d", n/1_000_000, n/1_000%1_000, n%1_000)
}
