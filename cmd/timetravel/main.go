package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cbortypes "staking-timetravel/lib/cbor-types"
	"staking-timetravel/lib/logger"
	"staking-timetravel/modules/aggregate"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/db"
	"staking-timetravel/modules/operations"
	"staking-timetravel/modules/remote"
	"staking-timetravel/modules/report"
	"staking-timetravel/modules/scheduler"
	snapshotstore "staking-timetravel/modules/snapshot-store"
)

func main() {
	args, err := ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(args.logLevel)
	slog.SetDefault(log)

	if err := run(args, log); err != nil {
		log.Error("run failed", "command", string(args.command), "err", err)
		os.Exit(1)
	}
}

func run(args args, log *slog.Logger) error {
	cbortypes.RegisterTypes()

	op, err := operations.ParseOperation(args.operation)
	if err != nil {
		return err
	}

	analysisConf := operations.NewAnalysisConfig(args.dataDir)
	remoteConf := remote.NewRemoteConfig(args.dataDir)
	outputConf := report.NewOutputConfig(args.dataDir)
	dbConf := db.NewDbConfig(args.dataDir)
	schedulerConf := scheduler.NewSchedulerConfig(args.dataDir)
	for _, c := range []aggregate.Plugin{analysisConf, remoteConf, outputConf, dbConf, schedulerConf} {
		if err := c.Init(); err != nil {
			return err
		}
	}
	if err := applyOverrides(args, analysisConf, remoteConf, outputConf, dbConf); err != nil {
		return err
	}

	store := snapshotstore.New(snapshotPath(), log)
	plugins := []aggregate.Plugin{store}

	sinks := report.Multi{report.NewCSV(outputConf.Get().OutputPath)}
	if outputConf.Get().MongoSink {
		mongo := db.New(dbConf, log)
		instance := db.NewDbInstance(mongo, dbConf.Get().DbName)
		collection := report.NewMongo(instance)
		plugins = append(plugins, mongo, instance, collection)
		sinks = append(sinks, collection)
	}
	defer sinks.Close()

	ops, err := operations.New(analysisConf.Get(), sinks, log)
	if err != nil {
		return err
	}

	var client *remote.Client
	if args.command != cmdTransform {
		client = remote.New(remoteConf, log)
		plugins = append(plugins, client)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var sched *scheduler.Scheduler
	if args.command == cmdWatch {
		sched = scheduler.New(schedulerConf, func(ctx context.Context) error {
			if _, err := client.Started().Await(ctx); err != nil {
				return err
			}
			hashes, err := resolveBlocks(ctx, client, nil)
			if err != nil {
				return err
			}
			states, err := extract(ctx, client, store, op, hashes)
			if err != nil {
				return err
			}
			return joinErrors(ops.RunAll(ctx, op, states))
		}, log)
		plugins = append(plugins, sched)
	}

	a := aggregate.New(plugins, log)
	if err := a.Init(); err != nil {
		return err
	}
	defer a.Stop()
	if _, err := a.Start().Await(ctx); err != nil {
		return err
	}

	switch args.command {
	case cmdExtract:
		if _, err := client.Started().Await(ctx); err != nil {
			return err
		}
		hashes, err := resolveBlocks(ctx, client, args.blocks)
		if err != nil {
			return err
		}
		_, err = extract(ctx, client, store, op, hashes)
		return err
	case cmdTransform:
		batches, err := load(ctx, store, op, args.blocks)
		if err != nil {
			return err
		}
		return joinErrors(ops.RunAll(ctx, op, batches))
	default:
		<-ctx.Done()
		log.Info("shutting down", "runs", sched.Runs())
		return nil
	}
}

func snapshotPath() string {
	if p := os.Getenv("SNAPSHOT_PATH"); p != "" {
		return p
	}
	return params.DEFAULT_SNAPSHOT_PATH
}

// resolveBlocks falls back to the chain head when no hash was given.
func resolveBlocks(ctx context.Context, client *remote.Client, blocks []string) ([]string, error) {
	if len(blocks) > 0 {
		return blocks, nil
	}
	head, err := client.HeadHash(ctx)
	if err != nil {
		return nil, err
	}
	return []string{head}, nil
}

// extract fetches and stores the states op needs for every hash. Ledger
// checks take the block and its parent.
func extract(ctx context.Context, client *remote.Client, store *snapshotstore.Store, op operations.Operation, hashes []string) ([][]*chainstate.ChainState, error) {
	batches := make([][]*chainstate.ChainState, 0, len(hashes))
	for _, hash := range hashes {
		var batch []*chainstate.ChainState
		if op.States() == 2 {
			pair, err := client.FetchPair(ctx, hash)
			if err != nil {
				return nil, err
			}
			batch = pair
		} else {
			state, err := client.FetchState(ctx, hash)
			if err != nil {
				return nil, err
			}
			batch = []*chainstate.ChainState{state}
		}
		for _, state := range batch {
			if err := store.Save(ctx, state); err != nil {
				return nil, err
			}
			fmt.Println(state.BlockHash)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// load groups hashes into batches of op.States() stored states.
func load(ctx context.Context, store *snapshotstore.Store, op operations.Operation, hashes []string) ([][]*chainstate.ChainState, error) {
	n := op.States()
	if len(hashes)%n != 0 {
		return nil, fmt.Errorf("%s takes %d blocks per run, got %d hashes", op, n, len(hashes))
	}
	batches := make([][]*chainstate.ChainState, 0, len(hashes)/n)
	for i := 0; i < len(hashes); i += n {
		batch := make([]*chainstate.ChainState, 0, n)
		for _, hash := range hashes[i : i+n] {
			state, err := store.Load(ctx, hash)
			if err != nil {
				return nil, err
			}
			batch = append(batch, state)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
