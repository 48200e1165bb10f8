package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ClientFlavor identifies the mailbox storage convention of an email client.
type ClientFlavor string

const (
	FlavorThunderbird ClientFlavor = "thunderbird"
	FlavorAppleMail   ClientFlavor = "apple_mail"
	FlavorOutlook     ClientFlavor = "outlook"
	FlavorGeneric     ClientFlavor = "generic"
)

// FolderFormat identifies the on-disk format of a mail folder.
type FolderFormat string

const (
	FormatMbox    FolderFormat = "mbox"
	FormatMaildir FolderFormat = "maildir"
	FormatEML     FolderFormat = "eml"
	FormatPST     FolderFormat = "pst"
	FormatOST     FolderFormat = "ost"
)

// FolderDescriptor identifies one discoverable mail folder on disk.
type FolderDescriptor struct {
	// Path is the filesystem location of the folder or container file.
	Path string `json:"path"`

	// DisplayName is the human-readable folder label
	// (e.g., "Local Folders/Inbox").
	DisplayName string `json:"display_name"`

	// Format is the on-disk storage format of the folder.
	Format FolderFormat `json:"format"`

	// Flavor identifies which client convention produced this folder.
	Flavor ClientFlavor `json:"flavor"`
}

// Message is one email unit found during a folder scan. It is created by
// the store reader and immutable afterwards; the cleaner re-resolves
// SourcePath and Key to perform removal.
type Message struct {
	// SourcePath is the on-disk location of the message. For container
	// formats (mbox) this is the container file; Key disambiguates within it.
	SourcePath string `json:"source_path"`

	// Key identifies the message inside its store: the sequence index for
	// mbox containers, the maildir key, or the filename for eml folders.
	Key string `json:"key"`

	// Seq is the stable enumeration position within one scan, starting at 0.
	Seq int `json:"seq"`

	// MessageID is the Message-ID header value, possibly empty.
	MessageID string `json:"message_id"`

	// Date is the parsed Date header. The zero value means the date was
	// missing or unparsable; such messages sort after all dated ones.
	Date time.Time `json:"date"`

	// From is the normalized sender address.
	From string `json:"from"`

	// Subject is the decoded Subject header, possibly empty.
	Subject string `json:"subject"`

	// BodyText is the normalized text body used for fingerprinting.
	BodyText string `json:"-"`

	// RawSize is the size of the raw message in bytes.
	RawSize int64 `json:"raw_size"`

	// ParseErr is non-nil when the message was malformed. Such messages are
	// counted but never fingerprinted or grouped.
	ParseErr error `json:"-"`
}

// HasDate reports whether the message carries a parsable date.
func (m *Message) HasDate() bool {
	return !m.Date.IsZero()
}

// Preview holds the read-only fields a front end shows before deletion.
type Preview struct {
	Subject     string    `json:"subject"`
	From        string    `json:"from"`
	Date        time.Time `json:"date"`
	BodyExcerpt string    `json:"body_excerpt"`
}

// previewExcerptLen caps the body excerpt returned by Preview.
const previewExcerptLen = 400

// Preview returns the display fields for this message with the body
// truncated to a short excerpt.
func (m *Message) Preview() Preview {
	excerpt := m.BodyText
	if len(excerpt) > previewExcerptLen {
		cut := previewExcerptLen
		if idx := strings.LastIndexByte(excerpt[:cut], ' '); idx > 0 {
			cut = idx
		} else {
			// No space to break on; back off to a rune boundary so the
			// excerpt stays valid UTF-8.
			for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
				cut--
			}
		}
		excerpt = excerpt[:cut] + "…"
	}
	return Preview{
		Subject:     m.Subject,
		From:        m.From,
		Date:        m.Date,
		BodyExcerpt: excerpt,
	}
}
