// Package metrics defines and registers the custom Prometheus metrics of the
// dashboard session agent. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto and served by the operator API on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// ── Inbound channels ──────────────────────────────────────────────────────────

// StreamEventsTotal counts named events received on the admin event stream.
// Label:
//   - event: "company-signup", "verification-request" or "project-proposal"
var StreamEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_events_total",
		Help:      "Total number of named events received on the admin event stream.",
	},
	[]string{"event"},
)

// MalformedMessagesTotal counts inbound payloads that failed to decode and were dropped.
// Label:
//   - channel: "stream" or "activity"
var MalformedMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_messages_total",
		Help:      "Total number of inbound messages dropped because they could not be decoded.",
	},
	[]string{"channel"},
)

// ReconnectsTotal counts scheduled reconnect attempts.
// Label:
//   - channel: "stream" or "activity"
var ReconnectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconnects_total",
		Help:      "Total number of reconnect attempts scheduled after a dropped connection.",
	},
	[]string{"channel"},
)

// ChannelState reports the current connection state of each inbound channel
// (0 connecting, 1 open, 2 reconnecting, 3 failed, 4 closed).
// Label:
//   - channel: "stream" or "activity"
var ChannelState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "channel_state",
		Help:      "Current connection state of each inbound channel.",
	},
	[]string{"channel"},
)

// ── Notification log ──────────────────────────────────────────────────────────

// NotificationDedupTotal counts deduplication decisions on ingested notifications.
// Label:
//   - result: "hit" (duplicate, dropped) or "miss" (new, appended)
var NotificationDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_dedup_total",
		Help:      "Total number of deduplication checks on pushed notifications, by result.",
	},
	[]string{"result"},
)

// UnreadNotifications tracks the unread count of the notification log.
var UnreadNotifications = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unread_notifications",
		Help:      "Current number of unread admin notifications.",
	},
)

// ── Presence ──────────────────────────────────────────────────────────────────

// PresencePatchesTotal counts presence updates applied to cached user pages.
// Label:
//   - result: "hit" (row patched), "miss" (user not cached) or "error"
var PresencePatchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "presence_patches_total",
		Help:      "Total number of presence updates applied to cached user lists, by result.",
	},
	[]string{"result"},
)

// ── Workflows ─────────────────────────────────────────────────────────────────

// WorkflowActionsTotal counts workflow actions.
// Labels:
//   - machine: "company signup", "company verification", "investment request", "payout request"
//   - action: the action kind (e.g. "approve", "rejectVerification")
//   - result: "ok", "invalid_transition", "missing_field" or "server_error"
var WorkflowActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_actions_total",
		Help:      "Total number of workflow actions, by machine, action and result.",
	},
	[]string{"machine", "action", "result"},
)

// ReconcilesTotal counts background notification refetches after workflow actions.
// Label:
//   - result: "ok" or "error"
var ReconcilesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciles_total",
		Help:      "Total number of background notification reconciliations, by result.",
	},
	[]string{"result"},
)
