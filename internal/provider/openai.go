package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"verbquiz-service/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash"
)

// Options configures an OpenAIProvider.
type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	TranscriptDir string
	Verbose       bool
	HTTPClient    *http.Client
}

// OpenAIProvider generates questions through any OpenAI-compatible chat completion API.
type OpenAIProvider struct {
	client        *openai.Client
	model         string
	transcriptDir string
	verbose       bool
}

// NewOpenAIProvider builds the client once; it is safe for concurrent use.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = DefaultBaseURL
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{
		client:        openai.NewClientWithConfig(cfg),
		model:         model,
		transcriptDir: opts.TranscriptDir,
		verbose:       opts.Verbose,
	}
}

// FetchQuestions asks the model for count questions. Any failure is reported as a
// *domain.GenerationError carrying the fixed player message.
func (p *OpenAIProvider) FetchQuestions(ctx context.Context, count int) ([]domain.Question, error) {
	questions, err := p.fetch(ctx, count)
	if err != nil {
		log.Printf("question generation failed: %v", err)
		return nil, domain.NewGenerationError(err)
	}
	return questions, nil
}

func (p *OpenAIProvider) fetch(ctx context.Context, count int) ([]domain.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid question count %d", count)
	}

	var tr *transcript
	if p.transcriptDir != "" {
		var err error
		if tr, err = openTranscript(p.transcriptDir, count, p.model); err != nil {
			log.Printf("transcript disabled: %v", err)
		} else {
			defer tr.Close()
		}
	}

	prompt := buildPrompt(count)
	tr.request(prompt)
	if p.verbose {
		log.Printf("requesting %d questions from %s", count, p.model)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        submitToolName,
					Description: "Lever de gegenereerde werkwoordvragen aan",
					Parameters:  questionSchema,
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: submitToolName},
		},
	})
	if err != nil {
		tr.failure(err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	payload, err := extractPayload(resp)
	if err != nil {
		tr.failure(err)
		return nil, err
	}
	tr.response(payload)
	if p.verbose {
		log.Printf("received %d bytes of question data", len(payload))
	}

	questions, err := decodeQuestions([]byte(payload))
	if err != nil {
		tr.failure(err)
		return nil, err
	}
	if p.verbose {
		log.Printf("decoded %d questions (requested %d)", len(questions), count)
	}
	return questions, nil
}

// extractPayload prefers the forced tool call and falls back to plain message content.
func extractPayload(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	msg := resp.Choices[0].Message
	for _, call := range msg.ToolCalls {
		if call.Function.Name == submitToolName {
			return call.Function.Arguments, nil
		}
	}
	if len(msg.ToolCalls) > 0 {
		return "", fmt.Errorf("unexpected tool call: %s", msg.ToolCalls[0].Function.Name)
	}
	if msg.Content == "" {
		return "", errors.New("empty response")
	}
	return msg.Content, nil
}
