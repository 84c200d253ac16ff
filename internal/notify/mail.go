package notify

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/template"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/imrishuroy/orderdesk/internal/aws"
	"github.com/imrishuroy/orderdesk/internal/orders"
)

var bodyTemplate = template.Must(template.New("order").Parse(`A new order has been submitted.

Order ID: {{.ID}}
Identity proof: {{.DriveFileID}}
Video: {{.VideoFileID}}
{{if .Details}}
Details:
{{range .Details}}  {{.Key}}: {{.Value}}
{{end}}{{end}}`))

type detail struct {
	Key   string
	Value any
}

type bodyData struct {
	ID          string
	DriveFileID any
	VideoFileID any
	Details     []detail
}

// MailNotifier emails the operator through SES.
type MailNotifier struct {
	client aws.SESAPI
	from   string
	to     string
}

// NewMailNotifier returns a notifier sending from -> to.
func NewMailNotifier(client aws.SESAPI, from, to string) *MailNotifier {
	return &MailNotifier{client: client, from: from, to: to}
}

func (m *MailNotifier) OrderCreated(ctx context.Context, o orders.Order) error {
	subject, body, err := RenderOrderEmail(o)
	if err != nil {
		return err
	}

	_, err = m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: sdkaws.String(m.from),
		Destination:      &sestypes.Destination{ToAddresses: []string{m.to}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: sdkaws.String(subject), Charset: sdkaws.String("UTF-8")},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: sdkaws.String(body), Charset: sdkaws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email for order %s: %w", o.ID(), err)
	}
	return nil
}

// RenderOrderEmail builds the fixed operator notification for o. Caller fields
// are listed in key order after the attachment references.
func RenderOrderEmail(o orders.Order) (subject, body string, err error) {
	data := bodyData{
		ID:          o.ID(),
		DriveFileID: o[orders.FieldDriveFileID],
		VideoFileID: o[orders.FieldVideoFileID],
	}
	keys := make([]string, 0, len(o))
	for k := range o {
		switch k {
		case orders.FieldOrderID, orders.FieldDriveFileID, orders.FieldVideoFileID:
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		data.Details = append(data.Details, detail{Key: k, Value: o[k]})
	}

	var sb strings.Builder
	if err := bodyTemplate.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render email: %w", err)
	}
	return "New Order Received: " + data.ID, sb.String(), nil
}
