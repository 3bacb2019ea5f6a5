package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

type Model string

const (
	//Model15Flash is fastest multimodal model with great performance for diverse, repetitive tasks
	Model15Flash Model = "gemini-1.5-flash"
	//Model15Flash8b is the smallest model for lower intelligence use cases
	Model15Flash8b Model = "gemini-1.5-flash-8b"

	DefaultModel = Model15Flash8b

	retryAttempts = 3
	retryDelay    = 2 * time.Second
)

type Client struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	rateLimiter *rate.Limiter
}

// NewClient creates a client tuned for short, deterministic answers.
func NewClient(ctx context.Context, apiKey string, model Model) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	genModel := client.GenerativeModel(string(model))
	genModel.SetTemperature(0)
	genModel.SetMaxOutputTokens(16)

	return &Client{client: client, model: genModel}, nil
}

func (c *Client) SetMinuteRateLimit(maxRequestsPerMinute float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerMinute/60), 1)
}

func (c *Client) GenerateResponse(ctx context.Context, text string) (string, error) {

	var resp string
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(retryAttempts, retryDelay, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.Warnf("gemini api returned server error, retrying (attempt %d)", i+1)
		}
		resp, err = c.waitAndGenerateResponse(ctx, text)
		return err, isServerError(err)
	})

	return resp, err
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) waitAndGenerateResponse(ctx context.Context, text string) (string, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	response, err := c.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", err
	}
	return responseText(response)
}

func responseText(response *genai.GenerateContentResponse) (string, error) {
	if response == nil || len(response.Candidates) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}
	content := response.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("response candidate has no content")
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("response part is not text")
	}
	return sb.String(), nil
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "Error 500") || strings.Contains(err.Error(), "Error 503")
}
