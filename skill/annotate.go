package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Annotator asks a Bedrock-hosted model for a prose description of a
// generated bundle. The description is stored alongside the bundle; the
// bundle itself is never model-generated.
type Annotator struct {
	client    *bedrockruntime.Client
	modelID   string
	maxTokens int
}

// NewAnnotator creates a Bedrock-backed annotator using the default AWS
// credential chain.
func NewAnnotator(region, modelID string, maxTokens int) (*Annotator, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Annotator{
		client:    bedrockruntime.NewFromConfig(cfg),
		modelID:   modelID,
		maxTokens: maxTokens,
	}, nil
}

// Annotate returns a short description of the bundle.
func (a *Annotator) Annotate(ctx context.Context, bundle *Bundle) (string, error) {
	prompt, err := BuildAnnotationPrompt(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	requestBody := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        a.maxTokens,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	}

	payloadBytes, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payloadBytes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	description := strings.TrimSpace(response.Content[0].Text)
	if description == "" {
		return "", fmt.Errorf("empty description")
	}
	return description, nil
}
