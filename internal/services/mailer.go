package services

import (
	"context"
	"errors"
	"fmt"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/utils"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var ErrMailDisabled = errors.New("SMTP non configuré")

// Mailer envoie les e-mails transactionnels (confirmation, changement de statut).
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	log      *zap.Logger
}

func NewMailer(cfg *config.Config, log *zap.Logger) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
		log:      log,
	}
}

func (m *Mailer) Enabled() bool {
	return m.host != ""
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("expéditeur invalide: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("destinataire invalide: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("client SMTP: %w", err)
	}

	m.log.Info("📤 Envoi de l'e-mail", zap.String("to", to), zap.String("subject", subject))
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, order models.Order) error {
	body, err := utils.OrderConfirmationHTML(order)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("✅ Commande %s confirmée", order.OrderNumber)
	return m.Send(ctx, order.CustomerEmail, subject, body)
}

func (m *Mailer) SendOrderStatus(ctx context.Context, order models.Order) error {
	body, err := utils.OrderStatusHTML(order)
	if err != nil {
		return err
	}
	return m.Send(ctx, order.CustomerEmail, utils.OrderStatusSubject(order.Status), body)
}
