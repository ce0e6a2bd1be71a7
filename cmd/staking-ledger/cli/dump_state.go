package cli

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/db"
)

func DumpStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-state",
		Short: "Prints the last persisted ledger snapshot and the latest staking events",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpState,
	}

	cmd.Flags().Int64("events", 10, "number of latest events to print")

	return cmd
}

func dumpState(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	limit, err := cmd.Flags().GetInt64("events")
	if err != nil {
		return err
	}

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}
	if cfg.Db == nil {
		return fmt.Errorf("no db configured in %s", GetConfigPath())
	}

	database, err := db.New(ctx, *cfg.Db)
	if err != nil {
		return err
	}
	defer database.Close(ctx)

	dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	out := cmd.OutOrStdout()

	snapshot, err := database.GetLedgerSnapshot(ctx)
	switch {
	case db.IsNotFoundError(err):
		fmt.Fprintln(out, "No ledger snapshot persisted yet")
	case err != nil:
		return err
	default:
		dumper.Fdump(out, snapshot)
	}

	events, err := database.GetStakingEvents(ctx, "", limit)
	if err != nil {
		return err
	}
	for _, event := range events {
		dumper.Fdump(out, event)
	}

	return nil
}
