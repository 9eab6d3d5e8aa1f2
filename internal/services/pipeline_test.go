package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/models"
)

type fakeRetriever struct {
	feedback []string
	err      error
}

func (f *fakeRetriever) EnsureIndex(ctx context.Context) error { return f.err }
func (f *fakeRetriever) Rebuild(ctx context.Context) (int, error) { return len(f.feedback), f.err }
func (f *fakeRetriever) Search(ctx context.Context, query string, k int) ([]string, error) {
	return f.feedback, f.err
}
func (f *fakeRetriever) Retrieve(ctx context.Context, analysis *models.StructuredAnalysis) ([]string, error) {
	return f.feedback, f.err
}

func newTestPipeline(t *testing.T, retriever FeedbackRetriever, generator TextGenerator) Pipeline {
	t.Helper()
	return NewPipeline(
		NewSkillScoringEngine(fixedNow),
		NewSignalAnalyzer(&fakeEmotions{}, &fakeIntents{}, &bowEmbedder{}, nil),
		retriever,
		NewReportGenerator(generator),
		zaptest.NewLogger(t),
	)
}

func TestPipeline_ScoreProfileMergesIntoCandidate(t *testing.T) {
	p := newTestPipeline(t, &fakeRetriever{}, &fakeGenerator{})
	profile := mustProfile(t, `{
		"id": "cv-42",
		"candidat": {
			"nom": "Ada",
			"compétences": {"hard_skills": ["Go"]},
			"projets": [{"titre": "Go service"}]
		}
	}`)

	scored, err := p.ScoreProfile(profile)

	require.NoError(t, err)
	require.NotNil(t, scored.Candidat)
	require.Len(t, scored.Candidat.AnalyseCompetences, 1)
	assert.Equal(t, "Go", scored.Candidat.AnalyseCompetences[0].Skill)
	assert.Nil(t, scored.AnalyseCompetences)
	assert.Equal(t, "cv-42", scored.Extra["id"])
	assert.Equal(t, "Ada", scored.Candidat.Extra["nom"])

	// the input profile is left untouched
	assert.Nil(t, profile.Candidat.AnalyseCompetences)
}

func TestPipeline_ScoreProfileWithoutCandidate(t *testing.T) {
	p := newTestPipeline(t, &fakeRetriever{}, &fakeGenerator{})
	profile := mustProfile(t, `{"source": "upload"}`)

	scored, err := p.ScoreProfile(profile)

	require.NoError(t, err)
	assert.Nil(t, scored.Candidat)
	assert.NotNil(t, scored.AnalyseCompetences)
	assert.Empty(t, scored.AnalyseCompetences)
	assert.Equal(t, "upload", scored.Extra["source"])
}

func TestPipeline_ScoreProfileNil(t *testing.T) {
	p := newTestPipeline(t, &fakeRetriever{}, &fakeGenerator{})

	_, err := p.ScoreProfile(nil)

	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestPipeline_AnalyzeInterview(t *testing.T) {
	generator := &fakeGenerator{response: "  The candidate fits the role.  "}
	feedback := []string{"Breathe before answering.", "Prepare questions."}
	p := newTestPipeline(t, &fakeRetriever{feedback: feedback}, generator)

	report, err := p.AnalyzeInterview(context.Background(), &models.AnalysisRequest{
		ConversationHistory: sampleConversation,
		JobDescriptionText:  "Go backend engineer",
	})

	require.NoError(t, err)
	assert.Equal(t, "The candidate fits the role.", report.Report)
	assert.Equal(t, feedback, report.Feedback)
	require.NotNil(t, report.Analysis)
	assert.Len(t, report.Analysis.SentimentAnalysis, 2)

	prompt := generator.lastPrompt()
	assert.Contains(t, prompt, "Breathe before answering.\nPrepare questions.")
	assert.Contains(t, prompt, "\n  \"overall_similarity_score\"")
}

func TestPipeline_RetrievalFailureDegrades(t *testing.T) {
	generator := &fakeGenerator{response: "report"}
	p := newTestPipeline(t, &fakeRetriever{err: errors.New("qdrant down")}, generator)

	report, err := p.AnalyzeInterview(context.Background(), &models.AnalysisRequest{
		ConversationHistory: sampleConversation,
		JobDescriptionText:  "Go backend engineer",
	})

	require.NoError(t, err)
	assert.NotNil(t, report.Feedback)
	assert.Empty(t, report.Feedback)
	assert.Contains(t, generator.lastPrompt(), "No advisory material found.")
}

func TestPipeline_ReportFailure(t *testing.T) {
	tests := []struct {
		name      string
		generator *fakeGenerator
	}{
		{name: "generator error", generator: &fakeGenerator{err: errors.New("quota exceeded")}},
		{name: "blank report", generator: &fakeGenerator{response: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, &fakeRetriever{}, tt.generator)

			report, err := p.AnalyzeInterview(context.Background(), &models.AnalysisRequest{
				ConversationHistory: sampleConversation,
				JobDescriptionText:  "Go backend engineer",
			})

			assert.Nil(t, report)
			assert.ErrorIs(t, err, apperror.ErrModelInference)
		})
	}
}

func TestPipeline_AnalyzeSignals(t *testing.T) {
	p := newTestPipeline(t, &fakeRetriever{feedback: []string{"tip"}}, &fakeGenerator{})

	signals, err := p.AnalyzeSignals(context.Background(), &models.AnalysisRequest{
		ConversationHistory: sampleConversation,
		JobDescriptionText:  "Go backend engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tip"}, signals.Feedback)

	_, err = p.AnalyzeSignals(context.Background(), &models.AnalysisRequest{ConversationHistory: sampleConversation})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
