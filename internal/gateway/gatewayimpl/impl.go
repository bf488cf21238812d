package gatewayimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/internal/gateway"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"github.com/orgball2608/viralink-scheduler/pkg/validation"
	"go.uber.org/fx"
)

const maxResponseBytes = 4 << 20

type Opts struct {
	fx.In

	Config   *config.Config
	Logger   logger.Logger
	Validate *validator.Validate
}

type GatewayImpl struct {
	textURL     string
	textAPIKey  string
	textClient  *http.Client
	imageURL    string
	imageAPIKey string
	imageClient *http.Client
	validate    *validator.Validate
	logger      logger.Logger
}

func New(opts Opts) *GatewayImpl {
	cfg := opts.Config
	textURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(cfg.Gemini.BaseURL, "/"), cfg.Gemini.Model)

	return &GatewayImpl{
		textURL:     textURL,
		textAPIKey:  cfg.Gemini.APIKey,
		textClient:  &http.Client{Timeout: cfg.Gemini.Timeout},
		imageURL:    cfg.ImageGen.URL,
		imageAPIKey: cfg.ImageGen.APIKey,
		imageClient: &http.Client{Timeout: cfg.ImageGen.Timeout},
		validate:    opts.Validate,
		logger:      opts.Logger.WithComponent("Gateway"),
	}
}

var _ gateway.Client = (*GatewayImpl)(nil)

func (g *GatewayImpl) checkPrompt(prompt domain.Prompt) error {
	if strings.TrimSpace(prompt.Text) == "" {
		return apperrors.Validation("prompt must not be empty")
	}
	if err := g.validate.Struct(prompt); err != nil {
		return apperrors.Validation("invalid prompt: %s", validation.Describe(err))
	}
	return nil
}

// composePrompt appends the optional tone as a writing instruction.
func composePrompt(prompt domain.Prompt) string {
	text := strings.TrimSpace(prompt.Text)
	if tone := strings.TrimSpace(prompt.Tone); tone != "" {
		text += fmt.Sprintf("\n\nWrite it in a %s tone.", tone)
	}
	return text
}

// postJSON sends body and returns the raw response. Transport failures and
// non-2xx statuses come back as GatewayError; decoding is left to the caller.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any, log logger.Logger) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, &apperrors.GatewayError{Provider: provider, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, &apperrors.GatewayError{Provider: provider, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &apperrors.GatewayError{Provider: provider, Message: "request failed", Err: err}
	}
	defer safeClose(resp.Body, log)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, &apperrors.GatewayError{Provider: provider, Status: resp.StatusCode, Message: "read response", Err: err}
	}
	return resp.StatusCode, raw, nil
}

func safeClose(closer io.ReadCloser, logger logger.Logger) {
	if err := closer.Close(); err != nil {
		logger.Error("Error closing response body", "error", err)
	}
}
