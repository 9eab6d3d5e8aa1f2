package services

import (
	"context"

	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/metrics"
	"alfredoptarigan/interview-analyzer/internal/models"
)

// Pipeline composes the scoring and interview analysis flows.
type Pipeline interface {
	// ScoreProfile returns a copy of profile with the ranked skill scores
	// under candidat.analyse_competences, or at the top level when the
	// profile has no candidat.
	ScoreProfile(profile *models.CandidateProfile) (*models.CandidateProfile, error)
	// AnalyzeSignals runs the signal analysis and feedback retrieval without
	// generating a report.
	AnalyzeSignals(ctx context.Context, req *models.AnalysisRequest) (*models.SignalsResponse, error)
	AnalyzeInterview(ctx context.Context, req *models.AnalysisRequest) (*models.InterviewReport, error)
}

type pipeline struct {
	scorer    SkillScoringEngine
	analyzer  SignalAnalyzer
	retriever FeedbackRetriever
	reporter  ReportGenerator
	log       *zap.Logger
}

func NewPipeline(
	scorer SkillScoringEngine,
	analyzer SignalAnalyzer,
	retriever FeedbackRetriever,
	reporter ReportGenerator,
	log *zap.Logger,
) Pipeline {
	return &pipeline{
		scorer:    scorer,
		analyzer:  analyzer,
		retriever: retriever,
		reporter:  reporter,
		log:       logger.WithComponent(log, "pipeline"),
	}
}

// ScoreProfile implements Pipeline.
func (p *pipeline) ScoreProfile(profile *models.CandidateProfile) (*models.CandidateProfile, error) {
	if profile == nil {
		return nil, apperror.InvalidInput("score profile", "profile is required")
	}

	scores := p.scorer.Score(profile)
	metrics.SkillScoring.Inc()

	out := *profile
	if profile.Candidat != nil {
		candidate := *profile.Candidat
		candidate.AnalyseCompetences = scores
		out.Candidat = &candidate
	} else {
		out.AnalyseCompetences = scores
	}

	p.log.Debug("profile scored", zap.Int("skills", len(scores)))
	return &out, nil
}

// AnalyzeSignals implements Pipeline.
func (p *pipeline) AnalyzeSignals(ctx context.Context, req *models.AnalysisRequest) (*models.SignalsResponse, error) {
	if req == nil {
		return nil, apperror.InvalidInput("analyze", "request is required")
	}

	analysis, err := p.analyzer.Analyze(ctx, req.ConversationHistory, req.JobDescriptionText)
	if err != nil {
		return nil, err
	}

	return &models.SignalsResponse{
		Analysis: analysis,
		Feedback: p.retrieve(ctx, analysis),
	}, nil
}

// AnalyzeInterview implements Pipeline.
func (p *pipeline) AnalyzeInterview(ctx context.Context, req *models.AnalysisRequest) (*models.InterviewReport, error) {
	signals, err := p.AnalyzeSignals(ctx, req)
	if err != nil {
		return nil, err
	}

	report, err := p.reporter.GenerateReport(ctx, signals.Analysis, signals.Feedback)
	if err != nil {
		return nil, asInference("generate report", err)
	}

	return &models.InterviewReport{
		Analysis: signals.Analysis,
		Feedback: signals.Feedback,
		Report:   report,
	}, nil
}

// retrieve degrades to no feedback when retrieval fails.
func (p *pipeline) retrieve(ctx context.Context, analysis *models.StructuredAnalysis) []string {
	feedback, err := p.retriever.Retrieve(ctx, analysis)
	if err != nil {
		p.log.Warn("feedback retrieval failed, continuing without feedback", zap.Error(err))
		return []string{}
	}
	return feedback
}
