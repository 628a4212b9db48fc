package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/festivalhq/admin-service/internal/config"
	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	CollegeMergedSubject    = "college.merged"
	PassVerifiedSubject     = "pass.verified"
	PassRejectedSubject     = "pass.rejected"
	PassGateAllowedSubject  = "pass.gate_allowed"
	OnspotRegisteredSubject = "onspot.registered"
)

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

type collegeMergedPayload struct {
	CollegeID      string   `json:"college_id"`
	CollegeName    string   `json:"college_name"`
	NormalizedKeys []string `json:"normalized_keys,omitempty"`
	ModifiedCount  int64    `json:"modified_count"`
	MergedBy       string   `json:"merged_by"`
}

type passEventPayload struct {
	PassID            string     `json:"pass_id"`
	UserID            string     `json:"user_id"`
	PassType          int        `json:"pass_type"`
	Status            string     `json:"status"`
	GateStatus        string     `json:"gate_status,omitempty"`
	TransactionNumber string     `json:"transaction_number,omitempty"`
	Actor             string     `json:"actor"`
	At                *time.Time `json:"at,omitempty"`
}

type onspotRegisteredPayload struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	College string `json:"college,omitempty"`
	Actor   string `json:"actor"`
}

func NewNATSPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

func (p *Publisher) publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal payload for NATS publishing", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Info("Published NATS message", zap.String("subject", subject))
	return nil
}

func (p *Publisher) PublishCollegeMerged(ctx context.Context, log *entity.CollegeMergeLog) error {
	return p.publish(CollegeMergedSubject, collegeMergedPayload{
		CollegeID:      log.CollegeID.Hex(),
		CollegeName:    log.CollegeName,
		NormalizedKeys: log.NormalizedKeys,
		ModifiedCount:  log.ModifiedCount,
		MergedBy:       log.MergedBy,
	})
}

func (p *Publisher) PublishPassVerified(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error {
	return p.publish(PassVerifiedSubject, passEventPayload{
		PassID:            pass.ID.Hex(),
		UserID:            user.ID.Hex(),
		PassType:          pass.PassType,
		Status:            entity.PassStatusVerified,
		TransactionNumber: pass.TransactionNumber,
		Actor:             actor,
		At:                pass.VerifiedDate,
	})
}

func (p *Publisher) PublishPassRejected(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error {
	return p.publish(PassRejectedSubject, passEventPayload{
		PassID:            pass.ID.Hex(),
		UserID:            user.ID.Hex(),
		PassType:          pass.PassType,
		Status:            entity.PassStatusRejected,
		TransactionNumber: pass.TransactionNumber,
		Actor:             actor,
	})
}

func (p *Publisher) PublishPassGateAllowed(ctx context.Context, user *entity.User, pass *entity.Pass, actor string) error {
	return p.publish(PassGateAllowedSubject, passEventPayload{
		PassID:     pass.ID.Hex(),
		UserID:     user.ID.Hex(),
		PassType:   pass.PassType,
		Status:     pass.Status,
		GateStatus: entity.GateStatusAllowed,
		Actor:      actor,
		At:         pass.GateCheckedAt,
	})
}

func (p *Publisher) PublishOnspotRegistered(ctx context.Context, user *entity.User, actor string) error {
	return p.publish(OnspotRegisteredSubject, onspotRegisteredPayload{
		UserID:  user.ID.Hex(),
		Email:   user.Email,
		College: user.College,
		Actor:   actor,
	})
}
