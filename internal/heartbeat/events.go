package heartbeat

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/zldap/agent/pkg/models"
)

// maxEventMessage caps the event message in bytes; it travels in the URL
const maxEventMessage = 1024

// reportEvent posts an agent event to the backend log endpoint when
// report_events is enabled. It is not an acknowledgment.
func (h *HeartbeatManager) reportEvent(ctx context.Context, session *Session, level, message string) {
	if !h.config.ReportEvents {
		return
	}

	event := models.LogEvent{
		MACAddress: h.identity.Resolve().MACAddress,
		Level:      level,
		Message:    truncateMessage(message, maxEventMessage),
	}
	if _, err := h.postQuery(ctx, session, "/log", event.Query()); err != nil {
		h.logger.Warn("failed to report event", zap.Error(err))
	}
}

// truncateMessage shortens s to at most n bytes without splitting a rune
func truncateMessage(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
