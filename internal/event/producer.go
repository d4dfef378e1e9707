package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/AccountsGo/pkg/kafka"

	"github.com/utafrali/AccountsGo/internal/domain"
)

// Kafka topic constants for account domain events.
const (
	TopicAccountRegistered    = "accounts.account.registered"
	TopicAccountVerified      = "accounts.account.verified"
	TopicAccountUpdated       = "accounts.account.updated"
	TopicAccountPasswordReset = "accounts.account.password_reset"
	TopicAccountDeactivated   = "accounts.account.deactivated"
	TopicAccountDeleted       = "accounts.account.deleted"
)

// Aggregate type constant.
const AggregateTypeAccount = "account"

// Source identifier for events originating from the accounts service.
const SourceAccountsService = "accounts-service"

// AccountRegisteredData is the payload for an account.registered event.
type AccountRegisteredData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// AccountVerifiedData is the payload for an account.verified event.
type AccountVerifiedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AccountUpdatedData is the payload for an account.updated event.
type AccountUpdatedData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// AccountPasswordResetData is the payload for an account.password_reset event.
type AccountPasswordResetData struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

// AccountDeactivatedData is the payload for an account.deactivated event.
type AccountDeactivatedData struct {
	AccountID string `json:"account_id"`
}

// AccountDeletedData is the payload for an account.deleted event.
type AccountDeletedData struct {
	AccountID string `json:"account_id"`
	DeletedBy string `json:"deleted_by"`
}

// Producer publishes account domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the accounts service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishAccountRegistered publishes an account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, account *domain.Account) error {
	data := AccountRegisteredData{
		ID:       account.ID,
		Email:    account.Email,
		FullName: account.FullName,
		Role:     account.Role,
	}

	return p.publish(ctx, TopicAccountRegistered, account.ID, data)
}

// PublishAccountVerified publishes an account.verified event.
func (p *Producer) PublishAccountVerified(ctx context.Context, account *domain.Account) error {
	data := AccountVerifiedData{
		ID:    account.ID,
		Email: account.Email,
	}

	return p.publish(ctx, TopicAccountVerified, account.ID, data)
}

// PublishAccountUpdated publishes an account.updated event.
func (p *Producer) PublishAccountUpdated(ctx context.Context, account *domain.Account) error {
	data := AccountUpdatedData{
		ID:       account.ID,
		Email:    account.Email,
		FullName: account.FullName,
		Role:     account.Role,
		Status:   account.Status,
	}

	return p.publish(ctx, TopicAccountUpdated, account.ID, data)
}

// PublishAccountPasswordReset publishes an account.password_reset event.
func (p *Producer) PublishAccountPasswordReset(ctx context.Context, accountID, email string) error {
	data := AccountPasswordResetData{
		AccountID: accountID,
		Email:     email,
	}

	return p.publish(ctx, TopicAccountPasswordReset, accountID, data)
}

// PublishAccountDeactivated publishes an account.deactivated event.
func (p *Producer) PublishAccountDeactivated(ctx context.Context, accountID string) error {
	data := AccountDeactivatedData{AccountID: accountID}

	return p.publish(ctx, TopicAccountDeactivated, accountID, data)
}

// PublishAccountDeleted publishes an account.deleted event.
func (p *Producer) PublishAccountDeleted(ctx context.Context, accountID, deletedBy string) error {
	data := AccountDeletedData{
		AccountID: accountID,
		DeletedBy: deletedBy,
	}

	return p.publish(ctx, TopicAccountDeleted, accountID, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeAccount, SourceAccountsService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published account event",
		slog.String("topic", topic),
		slog.String("account_id", aggregateID),
	)

	return nil
}
