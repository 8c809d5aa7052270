package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendStockAlert notifies the merchant that a product fell to or below
// its alert threshold.
func (s *Service) SendStockAlert(to, productName string, quantity, threshold int) error {
	subject := fmt.Sprintf("[Stock Alert] %s is running low (%d left)", productName, quantity)
	body := BuildStockAlertBody(productName, quantity, threshold)
	return s.send(to, subject, body)
}

// SendOutOfStock notifies the merchant that a product has sold out.
func (s *Service) SendOutOfStock(to, productName string) error {
	subject := fmt.Sprintf("[Out of Stock] %s has sold out", productName)
	body := BuildOutOfStockBody(productName)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
