package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/rs/zerolog/log"
)

// EmailQueue is satisfied by *Dispatcher.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

var orderTemplates = template.Must(template.New("company").Parse(`<h2>Thank you for your order</h2>
<p>Order <strong>{{.Order.OrderNumber}}</strong> was received and is pending confirmation.</p>
<table cellpadding="4">
<tr><th align="left">Product</th><th>Qty</th><th align="right">Total</th></tr>
{{range .Order.Items}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}} {{.PriceUnit}}</td><td align="right">{{.TotalPrice.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Order.Subtotal.StringFixed 2}}<br>
Discount ({{.Order.DiscountPercent.String}}%): -{{.Order.DiscountAmount.StringFixed 2}}<br>
<strong>Total: {{.Order.TotalAmount.StringFixed 2}}</strong></p>
<p>Payment terms: {{.Company.PaymentTermsDays}} days.</p>`))

func init() {
	template.Must(orderTemplates.New("staff").Parse(`<h2>New B2B order {{.Order.OrderNumber}}</h2>
<p>{{.Company.Name}} ({{.Company.Email}}, tier {{.Company.Tier}}) placed an order of
<strong>{{.Order.TotalAmount.StringFixed 2}}</strong> with {{len .Order.Items}} line(s).</p>
{{if .Order.Notes}}<p>Notes: {{.Order.Notes}}</p>{{end}}`))
}

// OrderNotifier turns a placed order into two queued emails: a confirmation
// with the PDF for the company and a heads-up for staff.
type OrderNotifier struct {
	queue      EmailQueue
	pdfDir     string
	staffEmail string
}

func NewOrderNotifier(queue EmailQueue, pdfDir, staffEmail string) *OrderNotifier {
	return &OrderNotifier{queue: queue, pdfDir: pdfDir, staffEmail: staffEmail}
}

func (n *OrderNotifier) OrderPlaced(ctx context.Context, order *model.B2BOrder, company *model.Company) error {
	data := struct {
		Order   *model.B2BOrder
		Company *model.Company
	}{order, company}

	var attachments []string
	if n.pdfDir != "" {
		path, err := infra.GenerateOrderPDF(order, company, n.pdfDir)
		if err != nil {
			log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("notifier: pdf generation failed, sending without attachment")
		} else {
			attachments = append(attachments, path)
		}
	}

	var errs []error
	if company.Email != "" {
		html, err := render("company", data)
		if err == nil {
			err = n.queue.EnqueueEmail(ctx, EmailJobPayload{
				Kind:        MailOrderCompany,
				OrderNumber: order.OrderNumber,
				To:          []string{company.Email},
				Subject:     fmt.Sprintf("Order %s received", order.OrderNumber),
				HTML:        html,
				Attachments: attachments,
			})
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("company email: %w", err))
		}
	}
	if n.staffEmail != "" {
		html, err := render("staff", data)
		if err == nil {
			err = n.queue.EnqueueEmail(ctx, EmailJobPayload{
				Kind:        MailOrderStaff,
				OrderNumber: order.OrderNumber,
				To:          []string{n.staffEmail},
				Subject:     fmt.Sprintf("New B2B order %s from %s", order.OrderNumber, company.Name),
				HTML:        html,
				Attachments: attachments,
			})
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("staff email: %w", err))
		}
	}
	return errors.Join(errs...)
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := orderTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
