// Package demo builds a throwaway Thunderbird-shaped profile populated
// with sample messages, including deliberate duplicates, so the scan and
// clean paths can be exercised without touching real mail. The scanner
// treats the produced folders like any other store.
package demo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message/mail"
)

// sample describes one demo message.
type sample struct {
	subject   string
	from      string
	to        string
	date      string // RFC 1123Z
	messageID string
	body      string
}

// inboxSamples contains two duplicate pairs/triples sharing Message-IDs,
// plus one unique message.
var inboxSamples = []sample{
	{
		subject:   "Team Meeting Tomorrow",
		from:      "boss@example.com",
		to:        "you@example.com",
		date:      "Mon, 01 Apr 2025 10:00:00 -0400",
		messageID: "team-meeting-duplicate@example.com",
		body:      "Let's meet tomorrow at 10 AM to discuss the project progress.",
	},
	{
		subject:   "Team Meeting Tomorrow",
		from:      "boss@example.com",
		to:        "you@example.com",
		date:      "Mon, 01 Apr 2025 10:00:00 -0400",
		messageID: "team-meeting-duplicate@example.com",
		body:      "Let's meet tomorrow at 10 AM to discuss the project progress.",
	},
	{
		subject:   "Invitation: Company Picnic",
		from:      "events@example.com",
		to:        "all-staff@example.com",
		date:      "Tue, 02 Apr 2025 09:30:00 -0400",
		messageID: "company-picnic-duplicate@example.com",
		body:      "You're invited to our annual company picnic this Saturday.",
	},
	{
		subject:   "Invitation: Company Picnic",
		from:      "events@example.com",
		to:        "all-staff@example.com",
		date:      "Tue, 02 Apr 2025 09:30:00 -0400",
		messageID: "company-picnic-duplicate@example.com",
		body:      "You're invited to our annual company picnic this Saturday.",
	},
	{
		subject:   "Invitation: Company Picnic",
		from:      "events@example.com",
		to:        "all-staff@example.com",
		date:      "Tue, 02 Apr 2025 09:30:00 -0400",
		messageID: "company-picnic-duplicate@example.com",
		body:      "You're invited to our annual company picnic this Saturday.",
	},
	{
		subject:   "Weekly Report Due",
		from:      "manager@example.com",
		to:        "you@example.com",
		date:      "Wed, 03 Apr 2025 16:15:00 -0400",
		messageID: "weekly-report-due-1@example.com",
		body:      "Please submit your weekly report by EOD tomorrow.",
	},
}

var sentSamples = []sample{
	{
		subject:   "Re: Weekly Report",
		from:      "you@example.com",
		to:        "manager@example.com",
		date:      "Wed, 03 Apr 2025 17:30:00 -0400",
		messageID: "weekly-report-duplicate@example.com",
		body:      "Attached is my weekly report. Let me know if you need any clarification.",
	},
	{
		subject:   "Re: Weekly Report",
		from:      "you@example.com",
		to:        "manager@example.com",
		date:      "Wed, 03 Apr 2025 17:30:00 -0400",
		messageID: "weekly-report-duplicate@example.com",
		body:      "Attached is my weekly report. Let me know if you need any clarification.",
	},
}

// CreateProfile builds the demo profile under baseDir and returns the
// profile directory to hand to folder discovery as a root hint.
func CreateProfile(baseDir string) (string, error) {
	profile := filepath.Join(baseDir, "default")
	localFolders := filepath.Join(profile, "Mail", "Local Folders")
	if err := os.MkdirAll(localFolders, 0o755); err != nil {
		return "", fmt.Errorf("creating demo profile: %w", err)
	}

	if err := writeMbox(filepath.Join(localFolders, "Inbox"), inboxSamples); err != nil {
		return "", err
	}
	if err := writeMbox(filepath.Join(localFolders, "Sent"), sentSamples); err != nil {
		return "", err
	}

	// profiles.ini so Thunderbird discovery resolves the profile.
	ini := "[Profile0]\nName=default\nIsRelative=1\nPath=default\nDefault=1\n"
	if err := os.WriteFile(filepath.Join(baseDir, "profiles.ini"), []byte(ini), 0o644); err != nil {
		return "", fmt.Errorf("writing demo profiles.ini: %w", err)
	}

	return profile, nil
}

// writeMbox writes the samples to an mbox file and drops a dummy .msf
// index next to it, matching the folder shape discovery expects.
func writeMbox(path string, samples []sample) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating demo mbox %s: %w", path, err)
	}
	defer f.Close()

	w := mbox.NewWriter(f)
	for _, s := range samples {
		date, err := time.Parse(time.RFC1123Z, s.date)
		if err != nil {
			return fmt.Errorf("parsing demo date %q: %w", s.date, err)
		}
		raw, err := buildMessage(s, date)
		if err != nil {
			return err
		}
		mw, err := w.CreateMessage(s.from, date)
		if err != nil {
			return fmt.Errorf("writing demo mbox %s: %w", path, err)
		}
		if _, err := mw.Write(raw); err != nil {
			return fmt.Errorf("writing demo mbox %s: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing demo mbox %s: %w", path, err)
	}

	if err := os.WriteFile(path+".msf", []byte("dummy msf index file"), 0o644); err != nil {
		return fmt.Errorf("writing demo msf index: %w", err)
	}
	return nil
}

// buildMessage renders one sample as an RFC 5322 message.
func buildMessage(s sample, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetSubject(s.subject)
	h.SetAddressList("From", []*mail.Address{{Address: s.from}})
	h.SetAddressList("To", []*mail.Address{{Address: s.to}})
	h.SetMessageID(s.messageID)

	var buf bytes.Buffer
	mw, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("building demo message %q: %w", s.subject, err)
	}
	if _, err := mw.Write([]byte(s.body)); err != nil {
		return nil, fmt.Errorf("building demo message %q: %w", s.subject, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building demo message %q: %w", s.subject, err)
	}
	return buf.Bytes(), nil
}
