package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alfredoptarigan/interview-analyzer/internal/bootstrap"
	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/validation"
)

func readAnalysisRequest(path string) (*models.AnalysisRequest, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	if err := validation.ValidateAnalysisRequest(payload); err != nil {
		return nil, err
	}

	var req models.AnalysisRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return &req, nil
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var signalsOnly bool

	cmd := &cobra.Command{
		Use:   "analyze <request.json>",
		Short: "Analyze an interview transcript and write the debrief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readAnalysisRequest(args[0])
			if err != nil {
				return err
			}

			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			components, err := bootstrap.Build(cmd.Context(), cfg, bootstrap.Options{RetryGeneration: true}, log)
			if err != nil {
				return err
			}
			defer components.Close()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			if signalsOnly {
				signals, err := components.Pipeline.AnalyzeSignals(cmd.Context(), req)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), boldRed("analysis failed"))
					return err
				}
				return enc.Encode(signals)
			}

			report, err := components.Pipeline.AnalyzeInterview(cmd.Context(), req)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), boldRed("analysis failed"))
				return err
			}

			fmt.Fprintf(out, "%s %.2f\n", boldCyan("similarity:"), report.Analysis.OverallSimilarityScore)
			for _, tip := range report.Feedback {
				fmt.Fprintf(out, "%s %s\n", yellow("advice:"), tip)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, boldGreen("Report"))
			fmt.Fprintln(out, report.Report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&signalsOnly, "signals-only", false, "print the structured analysis and feedback as JSON, without a report")
	return cmd
}
