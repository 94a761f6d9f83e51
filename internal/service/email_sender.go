package service

import (
	"context"
	"fmt"
	"io"

	"github.com/wneessen/go-mail"

	"github.com/akshardoc/akshardoc/internal/config"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
	SendWithAttachment(ctx context.Context, to, subject, body, filename string, attachment io.Reader) error
}

type smtpSender struct {
	cfg config.MailConfig
}

func NewEmailSender(cfg config.MailConfig) EmailSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := s.compose(to, subject, body)
	if err != nil {
		return err
	}
	return s.dispatch(ctx, msg)
}

func (s *smtpSender) SendWithAttachment(ctx context.Context, to, subject, body, filename string, attachment io.Reader) error {
	msg, err := s.compose(to, subject, body)
	if err != nil {
		return err
	}
	if err := msg.AttachReader(filename, attachment); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrDelivery, err)
	}
	return s.dispatch(ctx, msg)
}

func (s *smtpSender) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrDelivery, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrDelivery, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *smtpSender) dispatch(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(
		s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.From),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrDelivery, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrDelivery, err)
	}
	return nil
}
