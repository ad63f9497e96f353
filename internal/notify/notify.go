// Package notify emails volunteers when a donation is posted.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/repository"

	"go.uber.org/zap"
)

const postedLayout = "January 02, 2006 at 03:04 PM"

// VolunteerNotifier resolves eligible volunteers and mails them.
type VolunteerNotifier struct {
	users  repository.UserRepository
	mailer Mailer
	from   string
	log    *zap.SugaredLogger
}

// New creates a notifier sending from the given address.
func New(users repository.UserRepository, mailer Mailer, from string, log *zap.SugaredLogger) *VolunteerNotifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &VolunteerNotifier{users: users, mailer: mailer, from: from, log: log.Named("notify")}
}

type donationView struct {
	Name        string
	Quantity    int
	Description string
	Address     string
	ExpiryDate  string
	Donor       string
	Posted      string
}

// NotifyVolunteers emails every active volunteer with notifications enabled.
// Having no such volunteer is not an error.
func (n *VolunteerNotifier) NotifyVolunteers(ctx context.Context, item model.Item) error {
	volunteers, err := n.users.ListNotifiableVolunteers(ctx)
	if err != nil {
		return fmt.Errorf("list volunteers: %w", err)
	}
	if len(volunteers) == 0 {
		n.log.Info("[Notifier] No active volunteers with email notifications enabled")
		return nil
	}

	recipients := make([]string, 0, len(volunteers))
	for _, v := range volunteers {
		recipients = append(recipients, v.Email)
	}

	view := donationView{
		Name:        item.Name,
		Quantity:    item.Quantity,
		Description: item.Description,
		Address:     item.Address,
		ExpiryDate:  item.ExpiryDate.String(),
		Donor:       n.donorName(ctx, item),
		Posted:      item.CreatedAt.Format(postedLayout),
	}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, view); err != nil {
		return fmt.Errorf("render text body: %w", err)
	}
	if err := htmlBody.Execute(&html, view); err != nil {
		return fmt.Errorf("render html body: %w", err)
	}

	msg := Message{
		From:    n.from,
		BCC:     recipients,
		Subject: "New Donation Available: " + item.Name,
		Text:    text.String(),
		HTML:    html.String(),
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to %d volunteers: %w", len(recipients), err)
	}

	n.log.Infow("[Notifier] Sent donation notification", "item_id", item.ID, "recipients", len(recipients))
	return nil
}

func (n *VolunteerNotifier) donorName(ctx context.Context, item model.Item) string {
	donor, err := n.users.GetUserByID(ctx, item.DonorID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			n.log.Warnw("[Notifier] Failed to load donor", "donor_id", item.DonorID, "error", err)
		}
		if item.DonorEmail != "" {
			return item.DonorEmail
		}
		return "Unknown"
	}
	return donor.DisplayName()
}

var textBody = template.Must(template.New("text").Parse(`New Donation Available: {{.Name}}

Hello Volunteer,

A new food donation has been posted and needs your help for pickup and delivery.

DONATION DETAILS:
- Food Item: {{.Name}}
- Quantity: {{.Quantity}}
{{- if .Description}}
- Description: {{.Description}}
{{- end}}
- Pickup Location: {{.Address}}
- Expiry Date: {{.ExpiryDate}}
- Donor: {{.Donor}}
- Posted: {{.Posted}}

Please check the volunteer dashboard to accept this pickup request and help distribute food to those in need.

Thank you for your continued support in fighting food waste!

---
This is an automated notification from SharePlate.
You can manage your notification preferences in your account settings.
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="background-color: #22c55e; color: white; padding: 20px; text-align: center;">New Donation Available!</h2>
    <p>Hello Volunteer,</p>
    <p>A new food donation has been posted and needs your help for pickup and delivery.</p>
    <div style="border-left: 4px solid #22c55e; padding: 15px;">
      <h3>Donation Details</h3>
      <div><b>Food Item:</b> {{.Name}}</div>
      <div><b>Quantity:</b> {{.Quantity}}</div>
      {{- if .Description}}
      <div><b>Description:</b> {{.Description}}</div>
      {{- end}}
      <div><b>Pickup Location:</b> {{.Address}}</div>
      <div><b>Expiry Date:</b> {{.ExpiryDate}}</div>
      <div><b>Donor:</b> {{.Donor}}</div>
      <div><b>Posted:</b> {{.Posted}}</div>
    </div>
    <p>Please check the volunteer dashboard to accept this pickup request and help distribute food to those in need.</p>
    <p style="font-size: 12px; color: #666;">This is an automated notification from SharePlate. You can manage your notification preferences in your account settings.</p>
  </div>
</body>
</html>
`))
