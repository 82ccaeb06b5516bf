package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"boardroom-booking/internal/data/entity"
)

const timeLayout = "Mon Jan 2, 3:04 PM"

// Message is the rendered content shared by the email and in-app channels.
type Message struct {
	Subject string
	Plain   string
	HTML    string
}

var htmlTemplates = template.Must(template.New("notify").Parse(`
{{- define "reminder" -}}
<p>Hello {{.Name}},</p><p>Your meeting <strong>{{.Purpose}}</strong> in {{.Room}} starts at {{.When}}.</p>
{{- end -}}
{{- define "created" -}}
<p>Hello {{.Name}},</p><p><strong>{{.Purpose}}</strong> is booked in {{.Room}} for {{.When}}.</p>
{{- end -}}
{{- define "cancelled" -}}
<p>Hello {{.Name}},</p><p><strong>{{.Purpose}}</strong> in {{.Room}} for {{.When}} has been cancelled.</p>
{{- end -}}
`))

type htmlData struct {
	Name    string
	Purpose string
	Room    string
	When    string
}

// renderHTML executes the named template. The escaped plain text stands in if
// execution fails.
func renderHTML(name string, data htmlData, plain string) string {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "<p>" + template.HTMLEscapeString(plain) + "</p>"
	}
	return buf.String()
}

func roomName(b *entity.BookingDetail) string {
	if b.Room == nil {
		return "the boardroom"
	}
	if b.Room.Location != "" {
		return fmt.Sprintf("%s (%s)", b.Room.Name, b.Room.Location)
	}
	return b.Room.Name
}

func reminderMessage(b *entity.BookingDetail, name string) Message {
	when := b.StartTime.Local().Format(timeLayout)
	room := roomName(b)
	plain := fmt.Sprintf("Hello %s, your meeting %q in %s starts at %s.", name, b.Purpose, room, when)
	return Message{
		Subject: fmt.Sprintf("Reminder: %s starts at %s", b.Purpose, b.StartTime.Local().Format("3:04 PM")),
		Plain:   plain,
		HTML:    renderHTML("reminder", htmlData{Name: name, Purpose: b.Purpose, Room: room, When: when}, plain),
	}
}

func createdMessage(b *entity.BookingDetail, name string) Message {
	when := formatRange(b.StartTime, b.EndTime)
	room := roomName(b)
	plain := fmt.Sprintf("Hello %s, %q is booked in %s for %s.", name, b.Purpose, room, when)
	return Message{
		Subject: fmt.Sprintf("Booking confirmed: %s", b.Purpose),
		Plain:   plain,
		HTML:    renderHTML("created", htmlData{Name: name, Purpose: b.Purpose, Room: room, When: when}, plain),
	}
}

func cancelledMessage(b *entity.BookingDetail, name string) Message {
	when := formatRange(b.StartTime, b.EndTime)
	room := roomName(b)
	plain := fmt.Sprintf("Hello %s, %q in %s for %s has been cancelled.", name, b.Purpose, room, when)
	return Message{
		Subject: fmt.Sprintf("Booking cancelled: %s", b.Purpose),
		Plain:   plain,
		HTML:    renderHTML("cancelled", htmlData{Name: name, Purpose: b.Purpose, Room: room, When: when}, plain),
	}
}

func formatRange(start, end time.Time) string {
	start, end = start.Local(), end.Local()
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return fmt.Sprintf("%s - %s", start.Format(timeLayout), end.Format("3:04 PM"))
	}
	return fmt.Sprintf("%s - %s", start.Format(timeLayout), end.Format(timeLayout))
}
