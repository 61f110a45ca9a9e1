package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/dto"
	"golang-etf-dashboard/pkg/logger"
	"golang-etf-dashboard/pkg/utils"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// NewsAnnotatorRepository maps a persisted article to the ETFs it impacts.
// It runs decoupled from ingestion: a slow or failing annotator never
// blocks article admission.
type NewsAnnotatorRepository interface {
	Analyze(ctx context.Context, title, summary string, candidateSymbols []string) (*dto.ImpactAnalysisResult, error)
}

// geminiAIRepository is an implementation of NewsAnnotatorRepository that
// uses the Google Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (NewsAnnotatorRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// Analyze performs impact analysis using the Google Gemini API.
func (r *geminiAIRepository) Analyze(ctx context.Context, title, summary string, candidateSymbols []string) (*dto.ImpactAnalysisResult, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := BuildImpactAnalysisPrompt(title, summary, candidateSymbols)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	// Per-call deadline: a hung upstream must not park the backfill pass
	// past the next cycle trigger.
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Gemini.RequestTimeout)
	defer cancel()

	resp, err := r.genAiClient.Models.GenerateContent(callCtx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		r.logger.Error("Failed to call Gemini API", logger.ErrorField(err), logger.StringField("title", title))
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}

	jsonString := resp.Text()
	if jsonString == "" {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}
	jsonString = strings.Trim(jsonString, "`json\n`")

	var result dto.ImpactAnalysisResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		r.logger.Error("Failed to parse Gemini response", logger.ErrorField(err), logger.StringField("response", jsonString))
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	// The model occasionally returns tickers outside the candidate set.
	valid := result.ImpactedETFs[:0]
	for _, mention := range result.ImpactedETFs {
		if utils.ContainsString(candidateSymbols, mention.Symbol) {
			valid = append(valid, mention)
		}
	}
	result.ImpactedETFs = valid

	return &result, nil
}
