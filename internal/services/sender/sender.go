// Package sender отправляет письма по сообщениям очереди уведомлений.
// Темы и тексты писем на португальском: это язык клиентов платформы.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/lib/smtp"
	"github.com/aprendaplus/platform-backend/internal/metrics"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// SenderService превращает сообщения очередей в письма.
type SenderService struct {
	transport smtp.TransportInterface
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, m *metrics.Metrics, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		metrics:   m,
		log:       log,
	}
}

// SendPaymentConfirmation отправляет письмо об успешной оплате.
func (s *SenderService) SendPaymentConfirmation(body []byte) error {
	var message models.PaymentNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Pagamento confirmado"
	followUp := "O acesso ao conteúdo já está liberado na sua conta."
	if message.ProductKind == models.ProductMerch {
		followUp = "Seu pedido foi enviado para produção. Avisaremos por e-mail assim que ele for despachado, com o código de rastreio."
	}
	bodyText := fmt.Sprintf(`Olá, %s!

Recebemos o seu pagamento de R$ %.2f referente a "%s".

%s

Equipe Aprenda+`, message.Name, message.Amount, message.Description, followUp)

	return s.sendEmail("payment", []string{message.Email}, subject, bodyText)
}

// SendDeliveryNotice отправляет письмо о доставке заказа.
func (s *SenderService) SendDeliveryNotice(body []byte) error {
	var message models.DeliveryNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Seu pedido foi entregue"
	tracking := ""
	if message.TrackingNumber != "" {
		tracking = fmt.Sprintf("\nCódigo de rastreio: %s (%s)\n%s\n", message.TrackingNumber, message.Carrier, message.TrackingURL)
	}
	bodyText := fmt.Sprintf(`Olá, %s!

Seu pedido foi entregue.
%s
Esperamos que goste! Qualquer problema, responda este e-mail.

Equipe Aprenda+`, message.Name, tracking)

	return s.sendEmail("delivery", []string{message.Email}, subject, bodyText)
}

// SendConsultationNotice подтверждает клиенту приём заявки на консультацию.
func (s *SenderService) SendConsultationNotice(body []byte) error {
	var message models.ConsultationNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Recebemos a sua solicitação de consultoria"
	bodyText := fmt.Sprintf(`Olá, %s!

Recebemos a sua solicitação de consultoria (protocolo %d).
Nossa equipe vai entrar em contato em até um dia útil para agendar a conversa.

Equipe Aprenda+`, message.Name, message.RequestID)

	return s.sendEmail("consultation", []string{message.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(kind string, to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		s.count(kind, "error")
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		s.count(kind, "error")
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			s.count(kind, "error")
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		s.count(kind, "error")
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		s.count(kind, "error")
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		s.count(kind, "error")
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		s.count(kind, "error")
		return err
	}

	s.count(kind, "sent")
	s.log.Info("email sent successfully", "to", to)
	return nil
}

func (s *SenderService) count(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.NotificationEmails.WithLabelValues(kind, outcome).Inc()
	}
}
