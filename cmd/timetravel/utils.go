package main

import (
	"errors"
	"os"
	"strconv"

	"staking-timetravel/modules/config"
	"staking-timetravel/modules/db"
	"staking-timetravel/modules/operations"
	"staking-timetravel/modules/remote"
	"staking-timetravel/modules/report"

	"github.com/JustinKnueppel/go-result"
)

// applyOverrides applies flags and environment variables on top of the
// loaded config files. Overrides are persisted like any config update.
func applyOverrides(
	args args,
	analysis *config.Config[operations.AnalysisConfig],
	remoteConf *config.Config[remote.RemoteConfig],
	output *config.Config[report.OutputConfig],
	dbConf *config.Config[db.DbConfig],
) error {
	if args.chain != "" {
		if err := analysis.Update(func(c *operations.AnalysisConfig) { c.Chain = args.chain }); err != nil {
			return err
		}
	}
	if uri := os.Getenv("URI"); uri != "" {
		if err := remoteConf.Update(func(c *remote.RemoteConfig) { c.URI = uri }); err != nil {
			return err
		}
	}
	if path := os.Getenv("OUTPUT_PATH"); path != "" {
		if err := output.Update(func(c *report.OutputConfig) { c.OutputPath = path }); err != nil {
			return err
		}
	}
	if uri := os.Getenv("MONGO_URL"); uri != "" {
		if err := dbConf.Update(func(c *db.DbConfig) { c.DbURI = uri }); err != nil {
			return err
		}
		if err := output.Update(func(c *report.OutputConfig) { c.MongoSink = true }); err != nil {
			return err
		}
	}
	if v := os.Getenv("COMPUTE_UNBOUNDED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		if err := analysis.Update(func(c *operations.AnalysisConfig) { c.ComputeUnbounded = enabled }); err != nil {
			return err
		}
	}
	return nil
}

func joinErrors[T any](results []result.Result[T]) error {
	var errs []error
	for _, r := range results {
		if r.IsErr() {
			errs = append(errs, r.UnwrapErr())
		}
	}
	return errors.Join(errs...)
}
