package ai

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// AIService holds the Gemini client and a database connection used to
// build catalog context for the nutrition advisor. It is a thin
// pass-through: no core invariants live here.
type AIService struct {
	Client *genai.Client
	DB     *sql.DB
}

// NewAIService initializes the Gemini client.
func NewAIService(apiKey string, db *sql.DB) (*AIService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &AIService{Client: client, DB: db}, nil
}

// GenerateAdvice answers a nutrition question grounded in the published
// DRX catalog. Returns the model's text response.
func (s *AIService) GenerateAdvice(ctx context.Context, question string, modelName string) (string, error) {
	if modelName == "" {
		modelName = "gemini-1.5-flash" // Fallback default
	}
	model := s.Client.GenerativeModel(modelName)

	// 1. --- Build Catalog Context ---
	catalog, err := s.loadCatalogContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load catalog context: %w", err)
	}

	// 2. --- Compose the Prompt ---
	prompt := fmt.Sprintf(`You are the DRX nutrition advisor for a supplement storefront.
Answer the customer's question helpfully and honestly. Recommend DRX products
only when genuinely relevant, and always advise consulting a doctor for
medical concerns. You are not a medical professional.

Available products:
%s

Customer question: %s`, catalog, question)

	// 3. --- Call the Model ---
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	// 4. --- Extract the Text Response ---
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}

	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return answer, nil
}

func (s *AIService) loadCatalogContext(ctx context.Context) (string, error) {
	query := `
		SELECT name, category, description
		FROM products
		WHERE status = 'published'
		ORDER BY name
		LIMIT 50`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var sb strings.Builder
	for rows.Next() {
		var name, category, description string
		if err := rows.Scan(&name, &category, &description); err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "- %s (%s): %s\n", name, category, description)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if sb.Len() == 0 {
		return "(no products currently published)", nil
	}
	return sb.String(), nil
}
