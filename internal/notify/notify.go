// Package notify composes and dispatches per-download emails. Delivery
// is best effort: a broken mail setup never affects the run outcome.
package notify

import (
	"fmt"
	"log"
	"os/exec"
	"strings"

	"boostysync/internal/models"
)

// Message is one composed mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer hands a message to a transport. Implementations are
// substitutable with fakes in tests.
type Mailer interface {
	Send(msg Message) error
}

// Sendmail submits messages through the local sendmail binary.
type Sendmail struct {
	Bin string // e.g. /usr/sbin/sendmail
}

// Send pipes the message to `sendmail -t`, which reads the recipient
// from the headers.
func (s *Sendmail) Send(msg Message) error {
	raw := fmt.Sprintf("To: %s\nSubject: %s\n\n%s", msg.To, msg.Subject, msg.Body)

	cmd := exec.Command(s.Bin, "-t")
	cmd.Stdin = strings.NewReader(raw)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %v: %s", s.Bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Dispatcher composes notifications for download outcomes. With no
// recipient configured every call is a no-op.
type Dispatcher struct {
	to     string
	mailer Mailer
}

// NewDispatcher creates a dispatcher sending to the given address.
func NewDispatcher(to string, mailer Mailer) *Dispatcher {
	return &Dispatcher{to: to, mailer: mailer}
}

// Notify sends one message for a finished task. Failures attach the
// downloader log; successes suppress it.
func (d *Dispatcher) Notify(event models.NotificationEvent) {
	if d.to == "" {
		return
	}

	var subject, body string
	if event.Succeeded {
		subject = fmt.Sprintf("boostysync: downloaded %s - %s (%s)", event.Episode, event.Title, event.Channel)
		body = fmt.Sprintf("Downloaded %s - %s from channel %s (season %d).\n", event.Episode, event.Title, event.Channel, event.Season)
	} else {
		subject = fmt.Sprintf("boostysync: FAILED %s - %s (%s)", event.Episode, event.Title, event.Channel)
		body = fmt.Sprintf("Download failed for %s - %s from channel %s (season %d).\n\nDownloader log:\n%s\n",
			event.Episode, event.Title, event.Channel, event.Season, event.Log)
	}

	if err := d.mailer.Send(Message{To: d.to, Subject: subject, Body: body}); err != nil {
		log.Printf("Warning: failed to send notification: %v", err)
	}
}

// SummarizeRun sends one message listing everything a run downloaded.
// Nothing is sent for an empty run.
func (d *Dispatcher) SummarizeRun(downloaded []string) {
	if d.to == "" || len(downloaded) == 0 {
		return
	}

	plural := "s"
	if len(downloaded) == 1 {
		plural = ""
	}
	subject := fmt.Sprintf("boostysync: %d new file%s downloaded", len(downloaded), plural)

	var b strings.Builder
	fmt.Fprintf(&b, "Downloaded %d file(s):\n\n", len(downloaded))
	for _, f := range downloaded {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	if err := d.mailer.Send(Message{To: d.to, Subject: subject, Body: b.String()}); err != nil {
		log.Printf("Warning: failed to send run summary: %v", err)
	}
}
