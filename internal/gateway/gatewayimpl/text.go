package gatewayimpl

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
)

const textProvider = "gemini"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateText asks the text model for a caption and returns the
// concatenated text parts of the first candidate.
func (g *GatewayImpl) GenerateText(ctx context.Context, prompt domain.Prompt) (string, error) {
	if err := g.checkPrompt(prompt); err != nil {
		return "", err
	}

	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: composePrompt(prompt)}}}}}
	headers := map[string]string{"x-goog-api-key": g.textAPIKey}

	status, raw, err := postJSON(ctx, g.textClient, textProvider, g.textURL, headers, body, g.logger)
	if err != nil {
		g.logger.Error("Text generation request failed", "error", err)
		return "", err
	}

	var resp geminiResponse
	decodeErr := json.Unmarshal(raw, &resp)

	if decodeErr == nil && resp.Error != nil && len(resp.Candidates) == 0 {
		if status < http.StatusBadRequest && resp.Error.Code != 0 {
			status = resp.Error.Code
		}
		return "", &apperrors.GatewayError{Provider: textProvider, Status: status, Message: resp.Error.Message}
	}
	if status < 200 || status >= 300 {
		return "", &apperrors.GatewayError{Provider: textProvider, Status: status, Message: strings.TrimSpace(string(raw))}
	}
	if decodeErr != nil {
		return "", &apperrors.GatewayError{Provider: textProvider, Status: status, Message: "malformed response", Err: decodeErr}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &apperrors.GatewayError{Provider: textProvider, Status: status, Message: "malformed response: no candidate text"}
	}

	parts := resp.Candidates[0].Content.Parts
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		texts = append(texts, p.Text)
	}

	g.logger.Debug("Text generated", "parts", len(parts))
	return strings.Join(texts, "\n"), nil
}
