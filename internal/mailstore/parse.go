package mailstore

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailsweep/internal/fingerprint"
	"github.com/nhle/mailsweep/internal/model"
)

// parseMessage builds a Message from raw RFC 5322 bytes. Header decoding
// degrades gracefully: an unparsable date stays the zero time, unparsable
// subject/from become empty strings. Only a message whose structure cannot
// be read at all gets ParseErr set; it is still returned so the caller can
// count it.
func parseMessage(raw []byte, sourcePath, key string, seq int) model.Message {
	msg := model.Message{
		SourcePath: sourcePath,
		Key:        key,
		Seq:        seq,
		RawSize:    int64(len(raw)),
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if mr == nil {
		msg.ParseErr = fmt.Errorf("parsing message %s: %w", key, err)
		return msg
	}
	// A non-nil reader with an unknown-charset error is still usable;
	// affected parts just decode raw.
	defer mr.Close()

	h := mr.Header

	if subject, err := h.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = strings.TrimSpace(h.Get("Subject"))
	}

	if date, err := h.Date(); err == nil {
		msg.Date = date
	}

	if addrs, err := h.AddressList("From"); err == nil && len(addrs) > 0 {
		msg.From = addrs[0].String()
	} else {
		msg.From = strings.TrimSpace(h.Get("From"))
	}

	if id, err := h.MessageID(); err == nil {
		msg.MessageID = id
	}

	msg.BodyText = fingerprint.NormalizeBody(readTextParts(mr))
	return msg
}

// readTextParts concatenates every text/* inline part of the message.
// Part-level read errors end collection without failing the message.
func readTextParts(mr *mail.Reader) string {
	var b strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if !strings.HasPrefix(contentType, "text/") {
			continue
		}

		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.Write(body)
	}
	return b.String()
}
