package gatewayimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"github.com/orgball2608/viralink-scheduler/pkg/formatter"
)

const (
	imageProvider      = "imagegen"
	placeholderLocator = "/api/placeholder/640/360"
)

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// GenerateImage returns a media reference for the prompt. Without a
// configured image endpoint a placeholder reference is returned.
func (g *GatewayImpl) GenerateImage(ctx context.Context, prompt domain.Prompt) (domain.Media, error) {
	if err := g.checkPrompt(prompt); err != nil {
		return domain.Media{}, err
	}

	name := imageName(prompt.Text)
	if g.imageURL == "" {
		g.logger.Debug("Image endpoint not configured, returning placeholder")
		return domain.Media{Kind: domain.MediaImage, Locator: placeholderLocator, Name: name}, nil
	}

	headers := map[string]string{}
	if g.imageAPIKey != "" {
		headers["Authorization"] = "Bearer " + g.imageAPIKey
	}

	status, raw, err := postJSON(ctx, g.imageClient, imageProvider, g.imageURL, headers, imageRequest{Prompt: composePrompt(prompt)}, g.logger)
	if err != nil {
		g.logger.Error("Image generation request failed", "error", err)
		return domain.Media{}, err
	}

	var resp imageResponse
	decodeErr := json.Unmarshal(raw, &resp)

	if status < 200 || status >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && resp.Error != "" {
			msg = resp.Error
		}
		return domain.Media{}, &apperrors.GatewayError{Provider: imageProvider, Status: status, Message: msg}
	}
	if decodeErr != nil {
		return domain.Media{}, &apperrors.GatewayError{Provider: imageProvider, Status: status, Message: "malformed response", Err: decodeErr}
	}
	if resp.URL == "" {
		return domain.Media{}, &apperrors.GatewayError{Provider: imageProvider, Status: status, Message: "malformed response: missing url"}
	}

	if resp.Name != "" {
		name = resp.Name
	}
	return domain.Media{Kind: domain.MediaImage, Locator: resp.URL, Name: name}, nil
}

func imageName(prompt string) string {
	return fmt.Sprintf("AI Image: %s...", formatter.Head(strings.TrimSpace(prompt), 20))
}
