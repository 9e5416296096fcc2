// Package service orchestrates the two-destination relay: the operator chat
// is always notified, the launching user only after their launch data
// verifies.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tapline-games/miniapp-notify/internal/initdata"
	"github.com/tapline-games/miniapp-notify/internal/logging"
	"github.com/tapline-games/miniapp-notify/internal/metrics"
	"github.com/tapline-games/miniapp-notify/internal/models"
)

// Sentinel errors mapped to HTTP statuses by the handler layer. Both abort
// the request before any outbound call is made.
var (
	ErrTextRequired  = errors.New("text_required")
	ErrConfigMissing = errors.New("env_missing")
)

// reasonInitDataEmpty is recorded when no launch data accompanied the
// request; parsing is skipped entirely in that case.
const reasonInitDataEmpty = "initData_empty"

const (
	destinationAdmin = "admin"
	destinationUser  = "user"
)

// Relay abstracts the outbound message client so orchestration is testable
// without network I/O.
type Relay interface {
	Send(ctx context.Context, chatID, text string) models.RelayAttempt
}

// NotifyService relays a message to the operator chat and, when the launch
// data verifies, to the launching user.
type NotifyService struct {
	relay       Relay
	verifier    *initdata.Verifier
	botToken    string
	adminChatID string
	logger      *logging.Logger
}

// NewNotifyService wires the relay and verifier to the deployment's bot
// credential and operator destination.
func NewNotifyService(relay Relay, verifier *initdata.Verifier, botToken, adminChatID string, logger *logging.Logger) *NotifyService {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotifyService{
		relay:       relay,
		verifier:    verifier,
		botToken:    botToken,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// Notify validates the request, always attempts the operator relay, and
// conditionally relays to the verified user. Relay and verification failures
// are absorbed into the response; only validation and configuration problems
// surface as errors, and those fire before any outbound call.
func (s *NotifyService) Notify(ctx context.Context, req *models.NotifyRequest) (*models.NotifyResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrTextRequired
	}
	if s.botToken == "" || s.adminChatID == "" {
		return nil, ErrConfigMissing
	}

	resp := &models.NotifyResponse{OK: true}

	// The operator is informed regardless of what verification decides.
	admin := s.send(ctx, destinationAdmin, s.adminChatID, text)
	resp.AdminOK = admin.Succeeded
	resp.Admin = admin.Response
	if !admin.Succeeded {
		s.logger.WarnContext(ctx, "operator relay failed", "error", admin.Error)
	}

	if strings.TrimSpace(req.InitData) == "" {
		resp.VerifyReason = strPtr(reasonInitDataEmpty)
		metrics.VerificationsTotal.WithLabelValues(reasonInitDataEmpty).Inc()
		return resp, nil
	}

	outcome := s.verifier.VerifyInitData(req.InitData)
	if !outcome.Verified {
		reason := string(outcome.Reason)
		resp.VerifyReason = strPtr(reason)
		metrics.VerificationsTotal.WithLabelValues(reason).Inc()
		s.logger.InfoContext(ctx, "launch data rejected", "reason", reason)
		return resp, nil
	}
	metrics.VerificationsTotal.WithLabelValues("verified").Inc()

	userID := outcome.User.ID
	resp.UserID = &userID

	user := s.send(ctx, destinationUser, strconv.FormatInt(userID, 10), text)
	resp.UserSent = user.Succeeded
	if !user.Succeeded {
		s.logger.WarnContext(ctx, "user relay failed", "user_id", userID, "error", user.Error)
	}

	return resp, nil
}

func (s *NotifyService) send(ctx context.Context, destination, chatID, text string) models.RelayAttempt {
	start := time.Now()
	attempt := s.relay.Send(ctx, chatID, text)
	metrics.RelayDuration.Observe(time.Since(start).Seconds())
	metrics.RelayAttemptsTotal.WithLabelValues(destination, metrics.Outcome(attempt.Succeeded)).Inc()
	return attempt
}

func strPtr(s string) *string {
	return &s
}
