// Package understanding implements the query understanding stage: keyword
// extraction, coarse intent classification, and query embedding.
package understanding

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/embedding"
)

// Status marks how far query understanding got.
type Status string

const (
	// StatusSuccess means keywords, intent, and an embedding were all produced.
	StatusSuccess Status = "success"
	// StatusPartialNoEmbedding means keyword and intent extraction succeeded
	// but no embedding could be generated.
	StatusPartialNoEmbedding Status = "partial_success_no_embedding"
	// StatusFailure means the query could not be processed at all.
	StatusFailure Status = "failure"
)

// Intent labels form a closed set; classification picks the first matching rule.
const (
	IntentComparison           = "comparison"
	IntentInstructionalSeeking = "instructional_seeking"
	IntentInformationRetrieval = "information_retrieval"
)

// ErrMissingQuery is returned when the query text is empty.
var ErrMissingQuery = errors.New("missing query text")

// Result is the output of one understanding pass. Embedding is nil when the
// embedding collaborator produced nothing.
type Result struct {
	OriginalQuery string
	SessionID     string
	Keywords      []string
	Intent        string
	Embedding     []float32
	Status        Status
}

var (
	wordRe = regexp.MustCompile(`\w+`)

	stopwords = map[string]struct{}{
		"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {},
		"were": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
		"tell": {},
	}
)

// Stage turns raw query text into keywords, an intent label, and a query
// embedding. It holds no state between calls and is safe for concurrent use.
type Stage struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewStage creates the understanding stage with its embedding collaborator.
func NewStage(embedder embedding.Embedder, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{embedder: embedder, logger: logger}
}

// Process analyzes queryText. An empty query returns ErrMissingQuery along
// with a failure Result echoing the input fields, and never reaches the
// embedding collaborator. Embedding failures are downgraded to
// StatusPartialNoEmbedding, never propagated.
func (s *Stage) Process(ctx context.Context, queryText, sessionID string) (*Result, error) {
	result := &Result{
		OriginalQuery: queryText,
		SessionID:     sessionID,
	}
	if queryText == "" {
		result.Status = StatusFailure
		return result, ErrMissingQuery
	}

	result.Keywords = ExtractKeywords(queryText)
	result.Intent = ClassifyIntent(queryText, result.Keywords)

	// Embed the original, untokenized query text.
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, queryText)
		if err != nil {
			s.logger.Warn("embedding generation failed",
				zap.String("query", queryText), zap.Error(err))
		} else {
			result.Embedding = vec
		}
	}

	if result.Embedding == nil {
		result.Status = StatusPartialNoEmbedding
	} else {
		result.Status = StatusSuccess
	}
	s.logger.Debug("query understood",
		zap.String("intent", result.Intent),
		zap.Strings("keywords", result.Keywords),
		zap.String("status", string(result.Status)))
	return result, nil
}

// ExtractKeywords tokenizes text into lowercase word-character runs, drops
// stopwords and tokens of length <= 2, and deduplicates while preserving
// first-occurrence order.
func ExtractKeywords(text string) []string {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

// ClassifyIntent picks an intent label; the first matching rule wins.
func ClassifyIntent(text string, keywords []string) string {
	lower := strings.ToLower(text)
	if containsKeyword(keywords, "compare") || strings.Contains(lower, "vs") {
		return IntentComparison
	}
	if strings.Contains(lower, "how to") || containsKeyword(keywords, "guide") {
		return IntentInstructionalSeeking
	}
	return IntentInformationRetrieval
}

func containsKeyword(keywords []string, want string) bool {
	for _, k := range keywords {
		if k == want {
			return true
		}
	}
	return false
}
