package publisherimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/internal/publisher"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"go.uber.org/fx"
)

const providerName = "publisher"

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// PublisherImpl talks to the social backend's post and schedule endpoints.
type PublisherImpl struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func New(opts Opts) *PublisherImpl {
	return &PublisherImpl{
		baseURL:    strings.TrimRight(opts.Config.Publisher.URL, "/"),
		httpClient: &http.Client{Timeout: opts.Config.Publisher.Timeout},
		logger:     opts.Logger.WithComponent("Publisher"),
	}
}

var _ publisher.Client = (*PublisherImpl)(nil)

type ackResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Publish posts immediately, or hands the post to the backend's own due
// queue when ScheduleTime is set. The sweeper and the direct publish path
// always send immediate requests; the schedule endpoint serves callers
// that delegate timing to the backend.
func (p *PublisherImpl) Publish(ctx context.Context, req domain.PublishRequest) (*domain.PublishReceipt, error) {
	endpoint := p.baseURL + "/api/post"
	if req.ScheduleTime != nil {
		endpoint = p.baseURL + "/api/schedule"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &apperrors.GatewayError{Provider: providerName, Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &apperrors.GatewayError{Provider: providerName, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &apperrors.GatewayError{Provider: providerName, Message: "request failed", Err: err}
	}
	defer safeClose(resp.Body, p.logger)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &apperrors.GatewayError{Provider: providerName, Status: resp.StatusCode, Message: "read response", Err: err}
	}

	var ack ackResponse
	decodeErr := json.Unmarshal(raw, &ack)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && (ack.Error != "" || ack.Message != "") {
			msg = ack.Error
			if msg == "" {
				msg = ack.Message
			}
		}
		return nil, &apperrors.GatewayError{Provider: providerName, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &apperrors.GatewayError{Provider: providerName, Status: resp.StatusCode, Message: "malformed acknowledgement", Err: decodeErr}
	}

	p.logger.Info("Post accepted by backend",
		"endpoint", endpoint,
		"platforms", fmt.Sprint(req.Platforms),
		"message", ack.Message)

	return &domain.PublishReceipt{Message: ack.Message}, nil
}

func safeClose(closer io.ReadCloser, logger logger.Logger) {
	if err := closer.Close(); err != nil {
		logger.Error("Error closing response body", "error", err)
	}
}
