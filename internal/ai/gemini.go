package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/config"
	apperrors "github.com/inxsource/sales-assistant-go/internal/errors"
	"github.com/inxsource/sales-assistant-go/internal/session"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

const fallbackReply = "I apologize, but I'm having trouble generating a response right now. Please try again later."

// Context carries the conversation snapshot handed to the model alongside
// the raw history: who the business is, where the flow stands, what is in
// the cart. The session store supplies the reads; it never calls the model
// itself.
type Context struct {
	BusinessName string
	BusinessInfo string
	State        session.State
	CartSummary  string
	BasePrompt   string
}

// Generator produces a reply for the latest user message given the
// conversation so far.
type Generator interface {
	GenerateReply(ctx context.Context, userInput string, history []session.Message, convCtx Context) (string, error)
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: config.AIRequestTimeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) GenerateReply(ctx context.Context, userInput string, history []session.Message, convCtx Context) (string, error) {
	if c.apiKey == "" {
		return fallbackReply, nil
	}

	req := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt(convCtx)}},
		},
	}

	for _, msg := range history {
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}
	req.Contents = append(req.Contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: userInput}},
	})

	body, err := json.Marshal(req)
	if err != nil {
		return "", apperrors.AIUnavailable(err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.AIUnavailable(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", apperrors.AIUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", string(data)).
			Msg("gemini request failed")
		return "", apperrors.AIUnavailable(fmt.Errorf("gemini returned status %d", resp.StatusCode))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.AIUnavailable(err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msg("empty response received from gemini")
		return fallbackReply, nil
	}

	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}

func systemPrompt(convCtx Context) string {
	if convCtx.BasePrompt != "" {
		return convCtx.BasePrompt
	}

	name := convCtx.BusinessName
	if name == "" {
		name = "Inxsource"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI sales assistant for %s. ", name)
	b.WriteString("Your goal is to help customers find and purchase products through WhatsApp.\n\n")
	b.WriteString("Follow these guidelines:\n")
	b.WriteString("1. Be friendly, professional, and concise in your responses.\n")
	b.WriteString("2. Help customers find products, answer questions about products, and guide them through the purchasing process.\n")
	b.WriteString("3. When a customer wants to make a purchase, collect necessary information (product, quantity, shipping details).\n")
	fmt.Fprintf(&b, "4. Stay focused on helping customers with %s products and services.\n", name)
	b.WriteString("5. If you don't know something, be honest and suggest alternatives.\n")
	b.WriteString("6. Respond in the same language as the customer.\n")
	b.WriteString("7. Keep responses short and to the point, as this is a WhatsApp conversation.\n")

	if convCtx.BusinessInfo != "" {
		fmt.Fprintf(&b, "\nAbout the business: %s\n", convCtx.BusinessInfo)
	}
	if convCtx.State != "" {
		fmt.Fprintf(&b, "\nThe conversation is currently in the %q stage.\n", convCtx.State)
	}
	if convCtx.CartSummary != "" {
		fmt.Fprintf(&b, "\nThe customer's cart: %s\n", convCtx.CartSummary)
	}

	return b.String()
}
