package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- Methodology Analyzer Prompts ---

const AnalyzerSystemPrompt = "You are an expert research analyst who specializes in understanding and summarizing research methodologies from academic papers."

// methodologyFormat is the six-section report schema every extraction
// strategy asks for. Keeping it in one place guarantees the primary and the
// fallback strategies produce comparable output.
const methodologyFormat = `1. **Methodology Overview** (2-3 sentences describing the overall approach)

2. **Key Steps in Bullet Points:**
   - Step 1: [Description]
   - Step 2: [Description]
   - Step 3: [Description]
   - [Continue as needed]

3. **Methodology Flow:**
   [Describe the logical flow and sequence of the methodology in paragraph form]

4. **Key Techniques/Tools Used:**
   - [List main techniques, algorithms, or tools used]

5. **Data Sources/Inputs:**
   - [Describe what data or inputs are used in the methodology]

6. **Output/Results:**
   - [Describe what the methodology produces or outputs]

Please focus specifically on the methodology section and make it clear and easy to understand like whats the approach, what are the key steps and architectural framework.`

// AnalyzerInstructions is submitted with the asynchronous analysis job; the
// document itself travels as an upload reference, not as prompt text.
const AnalyzerInstructions = `When given a PDF file, analyze it and provide a comprehensive summary of the methodology in the following format:

` + methodologyFormat

// ReferencePromptFormat is the single-shot fallback prompt. The upload
// reference is embedded as plain prompt text, not as a verified attachment.
const ReferencePromptFormat = `I have uploaded a PDF file with ID: %s

Please analyze this PDF and provide a comprehensive summary of the methodology in the following format:

` + methodologyFormat + `

Note: The file ID is %s - please reference this file in your analysis.`

// TextPromptFormat is the prompt for the text-extraction pipeline variant.
const TextPromptFormat = `Please analyze the following text from a research paper and provide a comprehensive summary of the methodology in the specified format:

TEXT TO ANALYZE:
%s

Please provide a summary in the following format:

` + methodologyFormat + ` Keep the summary concise but comprehensive.`

// VertexClient is the single-shot completion capability backed by Gemini.
type VertexClient struct {
	modelName  string
	baseClient *genai.Client
}

// NewVertexClient creates the completion client.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &VertexClient{
		modelName:  "gemini-1.5-pro",
		baseClient: baseClient,
	}, nil
}

// Complete issues one completion request. Output is bounded by maxTokens and
// temperature stays low so summaries favor faithfulness over creativity.
func (c *VertexClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	model := c.baseClient.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AnalyzerSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: genai.Ptr(int32(maxTokens)),
		Temperature:     genai.Ptr(temperature),
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion from gemini: %w", err)
	}
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty completion")
	}
	return text, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// extractText parses the model's response and robustly extracts text content.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	content := strings.TrimSpace(b.String())
	content = strings.TrimPrefix(content, "```markdown")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
