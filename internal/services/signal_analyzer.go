package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/models"
)

type SignalAnalyzer interface {
	Analyze(ctx context.Context, history []models.Utterance, jobRequirements string) (*models.StructuredAnalysis, error)
}

type signalAnalyzer struct {
	emotions EmotionClassifier
	intents  IntentClassifier
	embedder Embedder
	log      *zap.Logger
}

func NewSignalAnalyzer(emotions EmotionClassifier, intents IntentClassifier, embedder Embedder, log *zap.Logger) SignalAnalyzer {
	return &signalAnalyzer{
		emotions: emotions,
		intents:  intents,
		embedder: embedder,
		log:      logger.WithComponent(log, "signal-analyzer"),
	}
}

// Analyze implements SignalAnalyzer. The three sub-analyses run concurrently
// and the record is assembled only when all of them succeed.
func (s *signalAnalyzer) Analyze(ctx context.Context, history []models.Utterance, jobRequirements string) (*models.StructuredAnalysis, error) {
	if err := validateConversation(history, jobRequirements); err != nil {
		return nil, err
	}

	userMessages := models.UserMessages(history)
	analysis := &models.StructuredAnalysis{
		SentimentAnalysis: [][]models.LabelScore{},
		IntentAnalysis:    []models.IntentResult{},
		RawTranscript:     append([]models.Utterance{}, history...),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if len(userMessages) == 0 {
			return nil
		}
		sentiments, err := s.emotions.ClassifyEmotions(gctx, userMessages)
		if err != nil {
			return asInference("analyze sentiment", err)
		}
		analysis.SentimentAnalysis = sentiments
		return nil
	})

	g.Go(func() error {
		if len(userMessages) == 0 {
			return nil
		}
		intents, err := s.intents.ClassifyIntents(gctx, userMessages)
		if err != nil {
			return asInference("classify intent", err)
		}
		analysis.IntentAnalysis = intents
		return nil
	})

	g.Go(func() error {
		score, err := s.similarity(gctx, userMessages, jobRequirements)
		if err != nil {
			return asInference("compute similarity", err)
		}
		analysis.OverallSimilarityScore = score
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Warn("analysis failed", zap.Int("user_messages", len(userMessages)), zap.Error(err))
		return nil, err
	}

	s.log.Debug("analysis completed",
		zap.Int("user_messages", len(userMessages)),
		zap.Float64("similarity", analysis.OverallSimilarityScore),
	)
	return analysis, nil
}

// similarity embeds the joined user answers and the job text with the same
// model. No answers means a 0 score without calling the model.
func (s *signalAnalyzer) similarity(ctx context.Context, userMessages []string, jobRequirements string) (float64, error) {
	if len(userMessages) == 0 {
		return 0, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{strings.Join(userMessages, " "), jobRequirements})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vectors))
	}

	cos, err := CosineSimilarity(vectors[0], vectors[1])
	if err != nil {
		return 0, err
	}
	return round(cos, 2), nil
}

func validateConversation(history []models.Utterance, jobRequirements string) error {
	if strings.TrimSpace(jobRequirements) == "" {
		return apperror.InvalidInput("analyze", "job description text is required")
	}
	for i, u := range history {
		if u.Role != models.RoleUser && u.Role != models.RoleAssistant {
			return apperror.InvalidInput("analyze", fmt.Sprintf("utterance %d has unknown role %q", i, u.Role))
		}
	}
	return nil
}

// asInference keeps typed errors as they are and types everything else as
// a model inference failure.
func asInference(op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.ModelInference(op, err)
}
