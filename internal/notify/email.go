package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"codepool/entity"
	"codepool/internal/config"
	"codepool/lib/sl"
)

// EmailNotifier mails allocation receipts to the buyer. Delivery is best
// effort: the engine logs a failure and the allocation stands either way.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	log    *slog.Logger
}

func NewEmail(conf config.SmtpConfig, log *slog.Logger) *EmailNotifier {
	if !conf.Enabled {
		return nil
	}
	return &EmailNotifier{
		dialer: gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password),
		from:   conf.From,
		log:    log.With(sl.Module("notify.email")),
	}
}

func (n *EmailNotifier) Send(receipt *entity.Receipt) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", receipt.Owner)
	m.SetHeader("Subject", fmt.Sprintf("Your %s codes", receipt.Service))
	m.SetBody("text/html", body(receipt))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send receipt mail: %w", err)
	}
	n.log.With(
		slog.String("txn_id", receipt.TxnId),
		slog.String("to", receipt.Owner),
	).Debug("receipt mailed")
	return nil
}

func body(r *entity.Receipt) string {
	var b strings.Builder
	b.WriteString("<h2>Thank you for your purchase</h2>")
	b.WriteString(fmt.Sprintf("<p>Transaction <b>%s</b>, %d code(s):</p><ul>", r.TxnId, r.Quantity))
	for _, code := range r.Codes {
		b.WriteString(fmt.Sprintf("<li><code>%s</code></li>", code))
	}
	b.WriteString(fmt.Sprintf("</ul><p>Total: %.2f</p>", float64(r.Total)/100))
	return b.String()
}
