package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/services"
	"alfredoptarigan/interview-analyzer/internal/validation"
)

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "score <profile.json>",
		Short: "Score the hard skills of a structured CV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger()
			if err != nil {
				return err
			}

			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read profile: %w", err)
			}
			if err := validation.ValidateProfile(payload); err != nil {
				return err
			}

			var profile models.CandidateProfile
			if err := json.Unmarshal(payload, &profile); err != nil {
				return fmt.Errorf("failed to decode profile: %w", err)
			}

			// Scoring needs no model, so the other stages stay unset.
			pipeline := services.NewPipeline(services.NewSkillScoringEngine(time.Now), nil, nil, nil, log)
			scored, err := pipeline.ScoreProfile(&profile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary {
				scores := scored.AnalyseCompetences
				if scored.Candidat != nil {
					scores = scored.Candidat.AnalyseCompetences
				}
				for _, s := range scores {
					fmt.Fprintf(out, "%-24s %s  (context %.1f, frequency %d, %.1fy)\n",
						boldCyan(s.Skill), boldGreen(fmt.Sprintf("%.2f", s.Score)),
						s.Details.ContextScore, s.Details.Frequency, s.Details.MaxDurationYears)
				}
				return nil
			}

			body, err := models.Marshal(scored)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(body))
			return err
		},
	}

	cmd.Flags().BoolVarP(&summary, "summary", "s", false, "print a ranked table instead of the scored profile")
	return cmd
}
