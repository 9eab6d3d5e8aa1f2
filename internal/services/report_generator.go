package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/models"
)

const reportTemperature = 0.5

type ReportGenerator interface {
	GenerateReport(ctx context.Context, analysis *models.StructuredAnalysis, feedback []string) (string, error)
}

type reportGenerator struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
}

func NewReportGenerator(generator TextGenerator) ReportGenerator {
	return &reportGenerator{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
	}
}

// GenerateReport implements ReportGenerator. The model receives the analysis
// as indented JSON and the feedback snippets one per line.
func (r *reportGenerator) GenerateReport(ctx context.Context, analysis *models.StructuredAnalysis, feedback []string) (string, error) {
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis: %w", err)
	}

	prompt := r.promptBuilder.BuildReportPrompt(string(analysisJSON), strings.Join(feedback, "\n"))
	report, err := r.generator.GenerateText(ctx, prompt, reportTemperature)
	if err != nil {
		return "", asInference("generate report", err)
	}

	report = strings.TrimSpace(report)
	if report == "" {
		return "", apperror.ModelInference("generate report", fmt.Errorf("empty report"))
	}
	return report, nil
}
