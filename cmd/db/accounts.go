package main

import (
	"context"
	"errors"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var ErrPrincipalRequired = errors.New("PRINCIPAL argument required")

// accountLedger is the part of the token ledger the account commands touch.
type accountLedger interface {
	SetAccount(ctx context.Context, principal string, balance, staked uint64) error
	BalanceAndStake(ctx context.Context, principal string) (uint64, uint64, error)
	Supply(ctx context.Context) (*types.TokenSupply, error)
}

func accountsCommand(ledger accountLedger, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "Manage token ledger accounts",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set the balance and stake of a principal",
				ArgsUsage: "PRINCIPAL",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "balance",
						Usage: "Liquid token balance",
					},
					&cli.UintFlag{
						Name:  "staked",
						Usage: "Staked token amount",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					principal, err := principalArg(c)
					if err != nil {
						return err
					}
					return ledger.SetAccount(ctx, principal, c.Uint("balance"), c.Uint("staked"))
				},
			},
			{
				Name:      "show",
				Usage:     "Show the balance, stake and voting power of a principal",
				ArgsUsage: "PRINCIPAL",
				Action: func(ctx context.Context, c *cli.Command) error {
					principal, err := principalArg(c)
					if err != nil {
						return err
					}

					balance, staked, err := ledger.BalanceAndStake(ctx, principal)
					if err != nil {
						return err
					}

					logger.Info("Account",
						zap.String("principal", principal),
						zap.Uint64("balance", balance),
						zap.Uint64("staked", staked),
						zap.Uint64("ownPower", types.SaturatingAdd(balance, staked)))
					return nil
				},
			},
			{
				Name:  "supply",
				Usage: "Show the token supply used for quorum snapshots",
				Action: func(ctx context.Context, _ *cli.Command) error {
					supply, err := ledger.Supply(ctx)
					if err != nil {
						return err
					}

					logger.Info("Token supply",
						zap.Uint64("total", supply.Total),
						zap.Uint64("circulating", supply.Circulating),
						zap.Uint64("staked", supply.Staked))
					return nil
				},
			},
		},
	}
}

func principalArg(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 || c.Args().First() == "" {
		return "", ErrPrincipalRequired
	}
	return c.Args().First(), nil
}
