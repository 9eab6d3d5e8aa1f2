package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alfredoptarigan/interview-analyzer/internal/bootstrap"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the knowledge base index, or rebuild it with --rebuild",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			components, err := bootstrap.Build(cmd.Context(), cfg, bootstrap.Options{}, log)
			if err != nil {
				return err
			}
			defer components.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Knowledge base: %s\n", boldCyan(cfg.KnowledgeBase.Path))
			fmt.Fprintf(out, "Vector store: %s, embedder: %s\n", cfg.Models.VectorStore, components.Embedder.Model())

			if !rebuild {
				if err := components.Retriever.EnsureIndex(cmd.Context()); err != nil {
					return err
				}
				count, err := components.Store.Count(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to count indexed chunks: %w", err)
				}
				fmt.Fprintf(out, "%s %d chunks indexed\n", boldGreen("ready:"), count)
				return nil
			}

			n, err := components.Retriever.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(out, yellow("knowledge base is empty, nothing indexed"))
				return nil
			}
			fmt.Fprintf(out, "%s %d chunks indexed\n", boldGreen("rebuilt:"), n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "drop the existing index and build it again")
	return cmd
}
