// Command walletctl runs one-off ledger operations against the same database
// and gateway the server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbilibin2017/xcellar-wallet/internal/app"
	"github.com/sbilibin2017/xcellar-wallet/internal/config"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
	"github.com/sbilibin2017/xcellar-wallet/internal/validation"
)

// Reconciler settles PENDING deposits against the gateway.
type Reconciler interface {
	Sweep(ctx context.Context) (*services.SweepResult, error)
	VerifyReference(ctx context.Context, reference string) (*services.VerifyResult, error)
}

// AdminCreator creates staff accounts.
type AdminCreator interface {
	CreateAdmin(ctx context.Context, email, password string) (*models.UserDB, error)
}

// backend is what a subcommand needs from an opened application.
type backend struct {
	Reconciler Reconciler
	Auth       AdminCreator
	Close      func()
}

type openFunc func(ctx context.Context, configPath string) (*backend, error)

func main() {
	if err := newRootCmd(openApp).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func openApp(ctx context.Context, configPath string) (*backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &backend{
		Reconciler: a.Reconciler,
		Auth:       a.Auth,
		Close: func() {
			a.Close()
			logger.Sync()
		},
	}, nil
}

func newRootCmd(open openFunc) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "walletctl",
		Short:        "Operate the xcellar wallet ledger",
		Long:         `Run reconciliation sweeps, verify single references and bootstrap staff accounts.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.env", "Path to configuration file")

	withBackend := func(cmd *cobra.Command, fn func(*backend) error) error {
		b, err := open(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer b.Close()
		return fn(b)
	}

	root.AddCommand(
		newSweepCmd(withBackend),
		newVerifyCmd(withBackend),
		newCreateAdminCmd(withBackend),
	)
	return root
}

type backendRunner func(cmd *cobra.Command, fn func(*backend) error) error

func newSweepCmd(run backendRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile old PENDING deposits once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(b *backend) error {
				res, err := b.Reconciler.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}
}

func newVerifyCmd(run backendRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <reference>",
		Short: "Reconcile one transaction reference against the gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(b *backend) error {
				res, err := b.Reconciler.VerifyReference(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}
}

type createAdminInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func newCreateAdminCmd(run backendRunner) *cobra.Command {
	var in createAdminInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.Struct(in); err != nil {
				return err
			}
			return run(cmd, func(b *backend) error {
				user, err := b.Auth.CreateAdmin(cmd.Context(), in.Email, in.Password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.UserID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
