package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<p>Hi {{.Name}},</p>
<p>Welcome to <strong>{{.Gym}}</strong>. Your membership is active from {{.Start}} to {{.End}}.</p>
<p>Sign up with this mobile number to book classes and see your plans.</p>`))

// Welcome describes a new membership.
type Welcome struct {
	To    string
	Name  string
	Gym   string
	Start string
	End   string
}

// Render builds the welcome email.
func (w Welcome) Render() (Message, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, w); err != nil {
		return Message{}, fmt.Errorf("render welcome: %w", err)
	}
	return Message{To: w.To, Subject: "Welcome to " + w.Gym, HTML: buf.String()}, nil
}
