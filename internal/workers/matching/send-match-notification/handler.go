// internal/workers/matching/send-match-notification/handler.go
package sendmatchnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"edunet-workers/internal/common/auth"
	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/models"
)

const TaskType = "send-match-notification"

var (
	ErrMissingMatch           = errors.New("MISSING_MATCH")
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSPublisher is satisfied by aws.SNSClient.
type SMSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// AccountDirectory is satisfied by auth.IdentityClient.
type AccountDirectory interface {
	GetAccount(ctx context.Context, accountID string) (*auth.Account, error)
}

type Handler struct {
	config   *Config
	email    EmailSender
	sms      SMSPublisher
	accounts AccountDirectory
	logger   logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSPublisher, accounts AccountDirectory, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		email:    email,
		sms:      sms,
		accounts: accounts,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "NOTIFICATION_SEND_FAILED"
		if errors.Is(err, ErrMissingMatch) {
			errorCode = "MISSING_MATCH"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Match == nil || input.Match.UserA == "" || input.Match.UserB == "" {
		return nil, ErrMissingMatch
	}

	match := input.Match
	pairs := [2][2]string{
		{match.UserA, match.UserB},
		{match.UserB, match.UserA},
	}

	deliveries := make([]Delivery, 0, 2)
	for _, pair := range pairs {
		deliveries = append(deliveries, h.notify(ctx, match, pair[0], pair[1]))
	}

	return &Output{Deliveries: deliveries}, nil
}

// notify sends one recipient their match announcement. Channel failures
// are reported in the delivery, never propagated: a half-delivered
// match is better than a retried duplicate.
func (h *Handler) notify(ctx context.Context, match *models.Match, recipientID, partnerID string) Delivery {
	delivery := Delivery{
		RecipientID: recipientID,
		Email:       models.NotificationStatusDisabled,
		SMS:         models.NotificationStatusDisabled,
	}

	recipient, err := h.accounts.GetAccount(ctx, recipientID)
	if err != nil {
		h.logger.Warn("recipient account lookup failed", map[string]interface{}{
			"recipientId": recipientID,
			"error":       err,
		})
		delivery.Email = models.NotificationStatusFailed
		delivery.SMS = models.NotificationStatusFailed
		return delivery
	}

	partnerName := partnerID
	if partner, err := h.accounts.GetAccount(ctx, partnerID); err == nil && partner.DisplayName != "" {
		partnerName = partner.DisplayName
	}

	notification := models.MatchNotification{
		MatchID:       match.ID,
		RecipientID:   recipient.ID,
		RecipientName: recipient.DisplayName,
		Email:         recipient.Email,
		Phone:         recipient.Phone,
		PartnerName:   partnerName,
		Super:         match.Super,
	}

	delivery.Email = h.sendEmail(ctx, notification)
	delivery.SMS = h.sendSMS(ctx, notification)
	return delivery
}

func (h *Handler) sendEmail(ctx context.Context, n models.MatchNotification) string {
	if !h.config.EmailEnabled || h.email == nil {
		return models.NotificationStatusDisabled
	}
	if n.Email == "" {
		return models.NotificationStatusFailed
	}

	subject := fmt.Sprintf("Nuova collaborazione con %s!", n.PartnerName)
	body := fmt.Sprintf(
		"Ciao %s,\n\nc'è affinità reciproca con %s: potete iniziare a collaborare su EduNet19.\n\nIl team EduNet19",
		n.RecipientName, n.PartnerName,
	)
	if n.Super {
		subject = fmt.Sprintf("%s ha mostrato grande interesse per il tuo istituto!", n.PartnerName)
	}

	_, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(h.config.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{n.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		h.logger.Warn("match email failed", map[string]interface{}{
			"recipientId": n.RecipientID,
			"matchId":     n.MatchID,
			"error":       err,
		})
		return models.NotificationStatusFailed
	}
	return models.NotificationStatusSent
}

func (h *Handler) sendSMS(ctx context.Context, n models.MatchNotification) string {
	if !h.config.SMSEnabled || h.sms == nil {
		return models.NotificationStatusDisabled
	}
	if h.config.SMSSuperOnly && !n.Super {
		return models.NotificationStatusDisabled
	}
	if n.Phone == "" {
		return models.NotificationStatusFailed
	}

	message := fmt.Sprintf("EduNet19: nuova collaborazione con %s! Apri l'app per i dettagli.", n.PartnerName)
	_, err := h.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(n.Phone),
		Message:     aws.String(message),
	})
	if err != nil {
		h.logger.Warn("match sms failed", map[string]interface{}{
			"recipientId": n.RecipientID,
			"matchId":     n.MatchID,
			"error":       err,
		})
		return models.NotificationStatusFailed
	}
	return models.NotificationStatusSent
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
