package heartbeat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zldap/agent/internal/executor"
	"github.com/zldap/agent/pkg/models"
)

// processTask downloads, builds, runs and acknowledges a single task.
// Download, resolution and spawn failures return before any ack is sent.
func (h *HeartbeatManager) processTask(ctx context.Context, session *Session, task models.Task) error {
	logger := h.logger.With(
		zap.Int("task_id", task.ID),
		zap.String("task_type", task.Type),
		zap.String("software", task.SoftwareName),
	)
	logger.Info("processing task")

	artifact, err := h.downloader.Fetch(ctx, task.DownloadURL, task.ID)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer h.downloader.Remove(artifact)

	cmd, err := h.builder.Build(task, artifact.Path)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	logger.Info("executing task", zap.Stringer("command", cmd))
	outcome, err := h.runner.Run(cmd, artifact.Name)
	if err != nil {
		return err
	}

	logger.Info("task complete",
		zap.String("status", outcome.Status),
		zap.String("message", outcome.Message),
		zap.Duration("duration", outcome.Duration),
	)

	h.acknowledge(ctx, session, task, outcome)
	return nil
}

// acknowledge reports the outcome; delivery failures are logged and dropped
func (h *HeartbeatManager) acknowledge(ctx context.Context, session *Session, task models.Task, outcome *executor.Outcome) {
	ack := models.AckRequest{
		TaskID:     task.ID,
		Status:     outcome.Status,
		Message:    outcome.Message,
		MACAddress: h.identity.Resolve().MACAddress,
	}

	h.logger.Debug("sending acknowledgement", zap.Int("task_id", task.ID))
	if _, err := h.post(ctx, session, "/ack", ack); err != nil {
		h.logger.Error("failed to send acknowledgement",
			zap.Int("task_id", task.ID),
			zap.Error(err),
		)
		return
	}

	h.logger.Debug("acknowledgement sent", zap.Int("task_id", task.ID))
}
