package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"atelier/internal/cache"
	"atelier/internal/lifecycle"
	"atelier/internal/mailer"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
)

type MessageService struct {
	msgRepo    repository.MessageRepository
	userRepo   repository.UserRepository
	mail       mailer.Mailer
	emitter    NotificationEmitter
	adminInbox string
}

func NewMessageService(
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	emitter NotificationEmitter,
	adminInbox string,
) *MessageService {
	return &MessageService{
		msgRepo:    msgRepo,
		userRepo:   userRepo,
		mail:       mail,
		emitter:    emitter,
		adminInbox: adminInbox,
	}
}

type SubmitMessageInput struct {
	Name     string
	Email    string
	Subject  string
	Body     string
	Category string
	Priority string
}

// Submit records a contact-form inquiry and forwards it by email to the
// admin inbox. The forward is best effort: a send failure is logged and
// counted but the message is already stored.
func (s *MessageService) Submit(ctx context.Context, in SubmitMessageInput) (*models.Message, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, models.NewValidationError("A valid email is required")
	}
	if in.Subject == "" {
		return nil, models.NewValidationError("Subject is required")
	}
	if in.Body == "" {
		return nil, models.NewValidationError("Message body is required")
	}

	msg := &models.Message{
		Name:     in.Name,
		Email:    in.Email,
		Subject:  in.Subject,
		Body:     in.Body,
		Status:   models.MessageNew,
		Category: "general",
		Priority: models.PriorityMedium,
	}
	if in.Category != "" {
		msg.Category = in.Category
	}
	if in.Priority != "" {
		p, err := lifecycle.ParsePriority(in.Priority)
		if err != nil {
			return nil, err
		}
		msg.Priority = p
	}

	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.DashboardStatsKey())

	if s.adminInbox != "" {
		body := fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Body)
		if err := s.mail.Send(ctx, s.adminInbox, "[Contact] "+msg.Subject, body); err != nil {
			middleware.MailSendFailures.Inc()
			slog.WarnContext(ctx, "failed to forward contact message",
				"message_id", msg.ID, "error", err)
		}
	}

	return msg, nil
}

func (s *MessageService) Get(ctx context.Context, id uint) (*models.Message, error) {
	return s.msgRepo.GetByID(ctx, id)
}

func (s *MessageService) List(ctx context.Context, limit, offset int) ([]models.Message, error) {
	return s.msgRepo.List(ctx, limit, offset)
}

// Reply emails the sender and marks the message replied, read, and
// resolved. The email is best effort; the inbox state advances either way.
func (s *MessageService) Reply(ctx context.Context, id uint, reply string) (*models.Message, error) {
	if reply == "" {
		return nil, models.NewValidationError("Reply text is required")
	}

	msg, err := s.msgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.mail.Send(ctx, msg.Email, "Re: "+msg.Subject, reply); err != nil {
		middleware.MailSendFailures.Inc()
		slog.WarnContext(ctx, "failed to send reply email",
			"message_id", msg.ID, "error", err)
	}

	msg.Replied = true
	msg.IsRead = true
	msg.ReplyMessage = reply
	msg.Status = models.MessageResolved
	if err := s.msgRepo.Update(ctx, msg); err != nil {
		return nil, err
	}

	// Senders with an account also get an in-app notification.
	if user, err := s.userRepo.GetByEmail(ctx, msg.Email); err == nil && user != nil {
		s.emitter.Emit(ctx, notifications.Draft{
			UserID:           user.ID,
			Title:            "Reply to Your Inquiry",
			Body:             fmt.Sprintf("We replied to your message %q.", msg.Subject),
			Type:             models.NotifMessageReply,
			RelatedMessageID: &msg.ID,
		})
	}

	return msg, nil
}

func (s *MessageService) MarkRead(ctx context.Context, id uint) (*models.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.IsRead = true
	if msg.Status == models.MessageNew {
		msg.Status = models.MessageInProgress
	}
	if err := s.msgRepo.Update(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) Delete(ctx context.Context, id uint) error {
	if err := s.msgRepo.Delete(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.DashboardStatsKey())
	return nil
}
