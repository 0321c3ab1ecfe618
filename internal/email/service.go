package email

import (
	"fmt"
	"net/smtp"
)

// Service sends mail through a plain SMTP relay
type Service struct {
	host string
	port string
	from string
}

func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendLowStockAlert tells the store operator a product is running out.
func (s *Service) SendLowStockAlert(to string, alert LowStockAlert) error {
	subject := fmt.Sprintf("Low stock: %s (%d left)", alert.ProductName, alert.Remaining)
	return s.send(to, subject, BuildLowStockBody(alert))
}

func (s *Service) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, BuildMessage(s.from, to, subject, body))
}

// BuildMessage assembles the raw RFC 5322 message.
func BuildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body))
}
