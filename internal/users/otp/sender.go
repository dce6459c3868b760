// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// # Delivery Implementations

// SMTPSender delivers passcodes through an outbound mail relay.
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPSender creates a Sender backed by the configured SMTP relay.
func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
	}
}

/*
Send delivers the code to the address by email.

Parameters:
  - context: context.Context
  - address: string
  - code: string

Returns:
  - error: Relay failures
*/
func (sender *SMTPSender) Send(context context.Context, address, code string) error {
	message := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your Farmo verification code\r\n\r\n"+
			"Your verification code is %s. It expires in a few minutes. "+
			"If you did not request it, ignore this message.\r\n",
		sender.from, address, code,
	))

	addr := fmt.Sprintf("%s:%d", sender.host, sender.port)
	auth := smtp.PlainAuth("", sender.user, sender.pass, sender.host)

	if err := smtp.SendMail(addr, auth, sender.from, []string{address}, message); err != nil {
		return fmt.Errorf("smtp_sender_send_failed: %w", err)
	}

	return nil
}

// LogSender writes deliveries to the structured log instead of a real
// channel. Used in development when no SMTP relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed Sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the delivery with the address masked. The code itself is logged
// only here, never by the service layer.
func (sender *LogSender) Send(context context.Context, address, code string) error {
	sender.logger.InfoContext(context, "otp_delivery_simulated",
		slog.String("address", MaskAddress(address)),
		slog.String("code", code),
	)
	return nil
}
