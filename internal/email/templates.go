package email

import (
	"bytes"
	"html/template"
	"time"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:560px;margin:auto">
<h2 style="color:#4f46e5">EventUp</h2>
{{template "body" .}}
<p style="color:#6b7280;font-size:12px;margin-top:32px">This is an automated message from EventUp.</p>
</body></html>`))

func render(body string, data interface{}) string {
	t := template.Must(template.Must(layout.Clone()).New("body").Parse(body))
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return ""
	}
	return buf.String()
}

// VerificationOTP is the email carrying a sign-up code
func VerificationOTP(to, name, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Your EventUp verification code",
		HTML: render(`<p>Hi {{.Name}},</p>
<p>Your verification code is:</p>
<p style="font-size:28px;font-weight:bold;letter-spacing:6px">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes.</p>`, map[string]interface{}{
			"Name": name, "Code": code, "Minutes": int(ttl.Minutes()),
		}),
	}
}

// ApplicationReceived tells an organizer someone applied
func ApplicationReceived(to, organizer, applicant, eventTitle string) Message {
	return Message{
		To:      to,
		ToName:  organizer,
		Subject: "New application for " + eventTitle,
		HTML: render(`<p>Hi {{.Organizer}},</p>
<p><strong>{{.Applicant}}</strong> applied to <strong>{{.Event}}</strong>.</p>
<p>Open your dashboard to review the application.</p>`, map[string]interface{}{
			"Organizer": organizer, "Applicant": applicant, "Event": eventTitle,
		}),
	}
}

// ApplicationApproved tells a collaborator they were accepted
func ApplicationApproved(to, name, eventTitle, role string, start time.Time, location string) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: "You're in: " + eventTitle,
		HTML: render(`<p>Hi {{.Name}},</p>
<p>Your application for <strong>{{.Event}}</strong> was approved{{if .Role}} as <strong>{{.Role}}</strong>{{end}}.</p>
<p>Starts: {{.Start}}<br>Location: {{.Location}}</p>`, map[string]interface{}{
			"Name": name, "Event": eventTitle, "Role": role,
			"Start": start.Format("02/01/2006 15:04"), "Location": location,
		}),
	}
}

// ReviewReceived tells a user they were reviewed
func ReviewReceived(to, name, eventTitle string, score float64) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: "You received a new review",
		HTML: render(`<p>Hi {{.Name}},</p>
<p>You received a {{printf "%.1f" .Score}}/5 review for <strong>{{.Event}}</strong>.</p>`, map[string]interface{}{
			"Name": name, "Event": eventTitle, "Score": score,
		}),
	}
}

// EventReminder reminds a participant of an event starting soon
func EventReminder(to, name, eventTitle string, start time.Time, location string) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Reminder: " + eventTitle + " starts tomorrow",
		HTML: render(`<p>Hi {{.Name}},</p>
<p><strong>{{.Event}}</strong> starts at {{.Start}}.</p>
<p>Location: {{.Location}}</p>`, map[string]interface{}{
			"Name": name, "Event": eventTitle, "Start": start.Format("02/01/2006 15:04"), "Location": location,
		}),
	}
}
