package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/polkapad/staking-ledger/internal/clients/ledgerclient"
	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/types"
)

const defaultAPIURL = "http://localhost:8080"

var clientCfg config.ClientConfig

func clientCommands() []*cobra.Command {
	cmds := []*cobra.Command{
		{
			Use:   "stake <amount>",
			Short: "Stakes amount of the token on behalf of --actor",
			Args:  cobra.ExactArgs(1),
			RunE:  runStake,
		},
		{
			Use:   "withdraw <amount>",
			Short: "Withdraws amount of the staked token back to --actor",
			Args:  cobra.ExactArgs(1),
			RunE:  runWithdraw,
		},
		{
			Use:   "stake-of <account>",
			Short: "Asks the staking program for the stake of account",
			Args:  cobra.ExactArgs(1),
			RunE:  runStakeOf,
		},
		{
			Use:   "update-configuration <token-address>",
			Short: "Points the staking ledger at another token, owner only",
			Args:  cobra.ExactArgs(1),
			RunE:  runUpdateConfiguration,
		},
		{
			Use:       "query <owner|total-staked|token-address|stake-of> [account]",
			Short:     "Reads the staking ledger state",
			Args:      cobra.RangeArgs(1, 2),
			ValidArgs: []string{"owner", "total-staked", "token-address", "stake-of"},
			RunE:      runQuery,
		},
		{
			Use:   "approve <spender> <amount>",
			Short: "Allows spender to move amount of the token of --actor",
			Args:  cobra.ExactArgs(2),
			RunE:  runApprove,
		},
		{
			Use:   "balance <account>",
			Short: "Reads the token balance of account",
			Args:  cobra.ExactArgs(1),
			RunE:  runBalance,
		},
	}

	for _, cmd := range cmds {
		cmd.Flags().StringVar(&clientCfg.URL, "url", defaultAPIURL, "staking API url")
		cmd.Flags().StringVar(&clientCfg.Actor, "actor", "", "account the request is sent from")
		cmd.Flags().UintVar(&clientCfg.MaxRetryTimes, "retries", 0, "attempts for read requests")
		cmd.Flags().DurationVar(&clientCfg.Timeout, "timeout", 15*time.Second, "request timeout")
	}
	return cmds
}

func newClient() (*ledgerclient.Client, error) {
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}
	return ledgerclient.NewClient(&clientCfg), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}

func runStake(cmd *cobra.Command, args []string) error {
	amount, err := types.ParseAmount(args[0])
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.Stake(cmd.Context(), amount)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	amount, err := types.ParseAmount(args[0])
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.Withdraw(cmd.Context(), amount)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runStakeOf(cmd *cobra.Command, args []string) error {
	account, err := types.ParseActorID(args[0])
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.StakeOf(cmd.Context(), account)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runUpdateConfiguration(cmd *cobra.Command, args []string) error {
	tokenAddress, err := types.ParseActorID(args[0])
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.UpdateConfiguration(cmd.Context(), tokenAddress)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runQuery(cmd *cobra.Command, args []string) error {
	var account *types.ActorID
	if len(args) == 2 {
		parsed, err := types.ParseActorID(args[1])
		if err != nil {
			return err
		}
		account = &parsed
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.State(cmd.Context(), ledgerclient.StateQuery(args[0]), account)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runApprove(cmd *cobra.Command, args []string) error {
	spender, err := types.ParseActorID(args[0])
	if err != nil {
		return err
	}
	amount, err := types.ParseAmount(args[1])
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.Approve(cmd.Context(), spender, amount)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runBalance(cmd *cobra.Command, args []string) error {
	account, err := types.ParseActorID(args[0])
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.TokenBalance(cmd.Context(), account)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}
