package search

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/genai"

	"github.com/servermap/servermap/pkg/errors"
	"github.com/servermap/servermap/pkg/logging"
)

const (
	// DefaultModel is the Gemini model used for text-to-Cypher translation.
	DefaultModel = "gemini-2.0-flash"

	// cacheSize bounds the translation cache. Queries repeat heavily in
	// interactive use; 256 distinct questions is plenty.
	cacheSize = 256
)

// schemaPrompt teaches the model the graph schema before each question.
const schemaPrompt = `You translate natural language questions about MCP servers into Cypher queries.

Graph schema:
- (s:Server) properties: id, name, description, author, version, license,
  repository, homepage, implementation_language, categories (list),
  operations (list), registry_source, popularity_score, tool_count
- (c:Category) properties: id, description
- (s:Server)-[:BELONGS_TO]->(c:Category)
- (a:Server)-[r:RELATED_TO]->(b:Server) properties: type, confidence, evidence

Rules:
- Generate a single read-only Cypher query.
- Use the parameters $query, $limit and $min_score where they apply.
- Always RETURN the Server node as s and a numeric score column.
- Always ORDER BY the score descending and LIMIT $limit.
- Respond with the Cypher query only, no explanation.

Question: %s`

// Translator turns natural-language questions into Cypher through Gemini,
// caching translations by query text.
type Translator struct {
	client *genai.Client
	model  string
	cache  *lru.Cache[string, string]
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithModel overrides the Gemini model name.
func WithModel(model string) TranslatorOption {
	return func(t *Translator) {
		if model != "" {
			t.model = model
		}
	}
}

// NewTranslator builds a Gemini-backed translator. The API key is required;
// callers without one should use BuildKeywordQuery directly.
func NewTranslator(ctx context.Context, apiKey string, opts ...TranslatorOption) (*Translator, error) {
	if apiKey == "" {
		return nil, &errors.ValidationError{Field: "api_key", Message: "Gemini API key is required"}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.WrapResource("connect", "gemini", "", err)
	}

	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}

	t := &Translator{client: client, model: DefaultModel, cache: cache}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Translate converts a question into a runnable query. Translation failures
// and rejected output degrade to the keyword fallback rather than erroring;
// search should always return something.
func (t *Translator) Translate(ctx context.Context, query string, limit int, minScore float64) *Query {
	logger := logging.FromContext(ctx)
	key := strings.ToLower(strings.TrimSpace(query))

	if cypher, ok := t.cache.Get(key); ok {
		logger.Debug().Str("query", query).Msg("Cypher translation cache hit")
		return t.llmQuery(cypher, query, limit, minScore)
	}

	cypher, err := t.generate(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Str("query", query).Msg("Cypher translation failed, using keyword search")
		return BuildKeywordQuery(query, limit, minScore)
	}

	cypher = cleanCypher(cypher)
	if !validCypher(cypher) {
		logger.Warn().Str("query", query).Msg("Translated Cypher rejected, using keyword search")
		return BuildKeywordQuery(query, limit, minScore)
	}

	t.cache.Add(key, cypher)
	return t.llmQuery(cypher, query, limit, minScore)
}

func (t *Translator) llmQuery(cypher, original string, limit int, minScore float64) *Query {
	extracted := extractTerms(original)
	return &Query{
		Cypher: cypher,
		Parameters: map[string]any{
			"query":     extracted.text,
			"min_score": minScore,
			"limit":     limit,
		},
		Original: original,
		Source:   "llm",
	}
}

func (t *Translator) generate(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(schemaPrompt, query)
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
	})
	if err != nil {
		return "", errors.WrapResource("generate", "cypher", query, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &errors.ResourceError{Operation: "generate", Resource: "cypher", ID: query, Err: errors.ErrNotFound}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// cleanCypher strips markdown code fences the model tends to wrap queries in.
func cleanCypher(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```cypher")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// writeClauses are Cypher keywords a search query must never contain.
var writeClauses = []string{"CREATE ", "MERGE ", "DELETE ", "DETACH ", "SET ", "REMOVE ", "DROP "}

// validCypher accepts only read-only queries that touch the graph.
func validCypher(cypher string) bool {
	if cypher == "" {
		return false
	}
	upper := strings.ToUpper(cypher)
	if !strings.Contains(upper, "MATCH") || !strings.Contains(upper, "RETURN") {
		return false
	}
	for _, clause := range writeClauses {
		if strings.Contains(upper, clause) {
			return false
		}
	}
	return true
}
