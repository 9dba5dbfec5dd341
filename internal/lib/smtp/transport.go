package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/aprendaplus/platform-backend/internal/config"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
)

// Transport открывает аутентифицированные SMTP-сессии для писем платформы.
// STARTTLS обязателен: провайдеры без него не принимаются.
type Transport struct {
	cfg *config.Config
	log *slog.Logger
}

// clientWrapper адаптирует *smtp.Client под интерфейс Client.
type clientWrapper struct {
	client *smtp.Client
}

func (w *clientWrapper) Mail(from string) error {
	return w.client.Mail(from)
}

func (w *clientWrapper) Rcpt(to string) error {
	return w.client.Rcpt(to)
}

func (w *clientWrapper) Data() (io.WriteCloser, error) {
	return w.client.Data()
}

func (w *clientWrapper) Quit() error {
	return w.client.Quit()
}

func (w *clientWrapper) Close() error {
	return w.client.Close()
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg *config.Config, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Connect устанавливает соединение, поднимает TLS и аутентифицируется.
// Одна сессия — одно письмо, соединение не переиспользуется.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	addr := t.cfg.SMTPHost + ":" + t.cfg.SMTPPort

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.log.Error("failed to dial SMTP server", slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("%s: dial %s: %w", op, addr, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		t.closeQuietly(conn)
		return nil, fmt.Errorf("%s: handshake: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.log.Error("SMTP server does not support STARTTLS")
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: server does not support STARTTLS", op)
	}
	tlsConfig := &tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		t.log.Error("failed to start TLS", sl.Err(err))
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: starttls: %w", op, err)
	}

	auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
	if err = client.Auth(auth); err != nil {
		t.log.Error("smtp auth failed", sl.Err(err))
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: auth: %w", op, err)
	}

	return &clientWrapper{client: client}, nil
}

func (t *Transport) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		t.log.Warn("failed to close smtp connection", sl.Err(err))
	}
}

// GetSMTPUser возвращает имя пользователя SMTP, оно же адрес отправителя.
func (t *Transport) GetSMTPUser() string {
	return t.cfg.SMTPUser
}
