package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NoticeBoard/internal/app"
	"NoticeBoard/internal/config"
	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var application *app.Application

	root := &cobra.Command{
		Use:          "noticeboard",
		Short:        "Campus notice board server and panel renderer",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg := config.Load()
			logger := logging.NewWithFormat(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
			application = app.New(cfg, logger)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the aggregated feed, the page and metrics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return application.Serve(cmd.Context())
			},
		},
		newRenderCmd(func() *app.Application { return application }),
		&cobra.Command{
			Use:   "import FILE",
			Short: "Upsert a JSON array of notifications into the store",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := application.Import(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d notifications\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Remove a notification from the store",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return application.Delete(cmd.Context(), args[0])
			},
		},
	)
	return root
}

func newRenderCmd(application func() *app.Application) *cobra.Command {
	var (
		sel    domain.Selection
		scroll int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Load the panel headlessly and print the resulting page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return application().Render(cmd.Context(), sel, scroll, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&sel.Department, "department", "", "department selector value")
	cmd.Flags().StringVar(&sel.Year, "year", "", "year selector value")
	cmd.Flags().IntVar(&scroll, "scroll", 0, "rows to scroll before printing")
	return cmd
}
