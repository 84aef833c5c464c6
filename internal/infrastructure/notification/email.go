package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	appnotification "booking-ledger/internal/application/notification"
	"booking-ledger/internal/infrastructure/config"
)

// mailSender go-mailのクライアントが満たす送信インターフェース
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier SMTPで予約確定メールを送る
// 顧客と管理者のアドレスそれぞれに1通ずつ送る
type EmailNotifier struct {
	sender      mailSender
	from        string
	adminEmails []string
}

// NewSMTPClient SMTP設定からgo-mailクライアントを作成
func NewSMTPClient(cfg config.SMTPConfig) (*mail.Client, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize smtp client: %w", err)
	}
	return c, nil
}

// NewEmailNotifier 新しいEmailNotifierを作成
func NewEmailNotifier(sender mailSender, from string, adminEmails []string) *EmailNotifier {
	return &EmailNotifier{
		sender:      sender,
		from:        from,
		adminEmails: adminEmails,
	}
}

// Channel チャネル名
func (n *EmailNotifier) Channel() string {
	return "email"
}

// NotifyBookingPaid 予約確定メールを送信
func (n *EmailNotifier) NotifyBookingPaid(ctx context.Context, b appnotification.BookingPaidNotification) error {
	var msgs []*mail.Msg

	if b.CustomerEmail != "" {
		msg, err := n.newMsg([]string{b.CustomerEmail},
			fmt.Sprintf("Booking confirmed: %s", b.OrderRef),
			customerBody(b))
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if len(n.adminEmails) > 0 {
		msg, err := n.newMsg(n.adminEmails,
			fmt.Sprintf("[booking] paid %s", b.BookingID),
			adminBody(b))
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if len(msgs) == 0 {
		return nil
	}
	if err := n.sender.DialAndSendWithContext(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to send booking mail: %w", err)
	}
	return nil
}

func (n *EmailNotifier) newMsg(to []string, subject, body string) (*mail.Msg, error) {
	if n.from == "" {
		return nil, errors.New("smtp from address is not configured")
	}
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("failed to set From address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("failed to set To address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func customerBody(b appnotification.BookingPaidNotification) string {
	var sb strings.Builder
	sb.WriteString("Your booking has been confirmed.\n\n")
	fmt.Fprintf(&sb, "Booking: %s\n", b.BookingID)
	fmt.Fprintf(&sb, "Order: %s\n", b.OrderRef)
	fmt.Fprintf(&sb, "Amount: %s %s\n", formatMinor(b.Amount), b.Currency)
	return sb.String()
}

func adminBody(b appnotification.BookingPaidNotification) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "booking_id: %s\n", b.BookingID)
	fmt.Fprintf(&sb, "user_id: %s\n", b.UserID)
	fmt.Fprintf(&sb, "order_ref: %s\n", b.OrderRef)
	fmt.Fprintf(&sb, "payment_ref: %s\n", b.PaymentRef)
	fmt.Fprintf(&sb, "amount: %s %s\n", formatMinor(b.Amount), b.Currency)
	return sb.String()
}

// formatMinor 最小単位の金額を小数2桁で表す
func formatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
