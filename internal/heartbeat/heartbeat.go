package heartbeat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/zldap/agent/internal/config"
	"github.com/zldap/agent/internal/download"
	"github.com/zldap/agent/internal/executor"
	"github.com/zldap/agent/pkg/models"
)

// Request headers understood by the backend
const (
	HeaderAgentToken   = "X-Agent-Token"
	HeaderMachineToken = "X-Machine-Token"
)

// IdentitySource resolves the host identity; it is called on every request
type IdentitySource interface {
	Resolve() models.HostIdentity
}

// Downloader fetches a task's artifact into a scratch directory
type Downloader interface {
	Fetch(ctx context.Context, rawURL string, taskID int) (*download.Artifact, error)
	Remove(a *download.Artifact)
}

// CommandBuilder resolves the command for a task and its artifact
type CommandBuilder interface {
	Build(task models.Task, artifactPath string) (*executor.Command, error)
}

// CommandRunner runs a command to completion
type CommandRunner interface {
	Run(cmd *executor.Command, artifactName string) (*executor.Outcome, error)
}

// maxErrorBody bounds how much of a failed response is kept in a StatusError
const maxErrorBody = 512

// StatusError reports a non-success HTTP status from the backend. Body holds
// at most maxErrorBody bytes of the response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Session is the state carried across poll cycles. It is owned by the loop
// goroutine and needs no locking.
type Session struct {
	machineToken string
}

// MachineToken returns the last token issued by the backend, or ""
func (s *Session) MachineToken() string {
	return s.machineToken
}

// setMachineToken overwrites the token and reports whether it is the first one
func (s *Session) setMachineToken(token string) bool {
	first := s.machineToken == ""
	s.machineToken = token
	return first
}

// HeartbeatManager polls the backend and runs the returned tasks one at a time
type HeartbeatManager struct {
	config     *config.Config
	client     *http.Client
	identity   IdentitySource
	downloader Downloader
	builder    CommandBuilder
	runner     CommandRunner
	logger     *zap.Logger
}

// NewHTTPClient builds the client used for backend calls and artifact
// downloads. There is no overall request timeout.
func NewHTTPClient(cfg *config.Config) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// New creates a HeartbeatManager
func New(cfg *config.Config, client *http.Client, identity IdentitySource, downloader Downloader,
	builder CommandBuilder, runner CommandRunner, logger *zap.Logger) *HeartbeatManager {
	return &HeartbeatManager{
		config:     cfg,
		client:     client,
		identity:   identity,
		downloader: downloader,
		builder:    builder,
		runner:     runner,
		logger:     logger.Named("heartbeat"),
	}
}

// Run polls immediately and then once per interval until ctx is cancelled.
// Cancellation is only observed between cycles: a cycle in progress,
// including its downloads, installers and acks, always runs to completion.
func (h *HeartbeatManager) Run(ctx context.Context) error {
	h.logger.Info("starting heartbeat loop",
		zap.Duration("interval", h.config.Interval()),
		zap.String("backend", h.config.BackendURL),
	)

	cycleCtx := context.WithoutCancel(ctx)
	session := &Session{}
	for {
		if err := h.Cycle(cycleCtx, session); err != nil {
			h.logger.Error("heartbeat failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			h.logger.Info("heartbeat loop stopped")
			return nil
		case <-time.After(h.config.Interval()):
		}
	}
}

// Cycle performs one poll and processes the returned tasks in order. It
// returns transport and protocol errors; task errors are logged and never
// stop the batch.
func (h *HeartbeatManager) Cycle(ctx context.Context, session *Session) error {
	resp, err := h.sendHeartbeat(ctx, session)
	if err != nil {
		return err
	}

	if resp.MachineToken != nil && *resp.MachineToken != "" {
		if session.setMachineToken(*resp.MachineToken) {
			h.logger.Info("received machine token")
		}
	}

	h.logger.Debug("heartbeat successful",
		zap.String("status", resp.Status),
		zap.Int("tasks", len(resp.Tasks)),
	)
	if len(resp.Tasks) > 0 {
		h.logger.Info("received tasks", zap.Int("count", len(resp.Tasks)))
	}

	for _, task := range resp.Tasks {
		if err := h.processTask(ctx, session, task); err != nil {
			h.logger.Error("failed to process task",
				zap.Int("task_id", task.ID),
				zap.String("software", task.SoftwareName),
				zap.Error(err),
			)
			h.reportEvent(ctx, session, "error",
				fmt.Sprintf("task %d (%s %s) aborted: %v", task.ID, task.Type, task.SoftwareName, err))
		}
	}

	return nil
}

// sendHeartbeat posts the host identity and decodes the poll result
func (h *HeartbeatManager) sendHeartbeat(ctx context.Context, session *Session) (*models.HeartbeatResponse, error) {
	id := h.identity.Resolve()
	h.logger.Debug("sending heartbeat", zap.String("hostname", id.Hostname))

	body, err := h.post(ctx, session, "/heartbeat", id)
	if err != nil {
		return nil, err
	}

	var resp models.HeartbeatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse heartbeat response: %w", err)
	}
	return &resp, nil
}

// post sends payload as JSON with the auth headers and returns the body of
// a 2xx response
func (h *HeartbeatManager) post(ctx context.Context, session *Session, endpoint string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
	}
	return h.send(ctx, session, endpoint, nil, bytes.NewReader(data))
}

// postQuery sends params in the query string with an empty body
func (h *HeartbeatManager) postQuery(ctx context.Context, session *Session, endpoint string, params url.Values) ([]byte, error) {
	return h.send(ctx, session, endpoint, params, nil)
}

func (h *HeartbeatManager) send(ctx context.Context, session *Session, endpoint string, params url.Values, body io.Reader) ([]byte, error) {
	target := h.config.BackendURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderAgentToken, h.config.AuthToken)
	if token := session.MachineToken(); token != "" {
		req.Header.Set(HeaderMachineToken, token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
