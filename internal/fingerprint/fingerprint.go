// Package fingerprint computes deterministic comparison keys for messages
// under a selected duplicate-detection criterion. It is a pure function of
// already-parsed message fields and performs no I/O.
package fingerprint

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/nhle/mailsweep/internal/model"
)

// fieldSep joins normalized fields before hashing. A message field can
// contain '|' itself, but every criterion hashes a fixed field count, so
// the join stays unambiguous enough for bucketing.
const fieldSep = "|"

// Compute returns the fingerprint of msg under the given criterion.
// Identical normalized inputs always produce the same fingerprint, within
// one run and across runs.
func Compute(msg *model.Message, criterion model.Criterion) model.Fingerprint {
	var fields []string

	switch criterion {
	case model.CriterionContent:
		fields = []string{msg.BodyText}
	case model.CriterionHeaders:
		fields = []string{
			NormalizeHeader(msg.MessageID),
			normalizeDate(msg.Date),
			NormalizeSender(msg.From),
			NormalizeHeader(msg.Subject),
		}
	case model.CriterionSubjectSender:
		fields = []string{
			NormalizeHeader(msg.Subject),
			NormalizeSender(msg.From),
		}
	default:
		// strict: headers plus body. An empty Message-ID simply contributes
		// an empty field; the remaining fields keep discriminating.
		fields = []string{
			NormalizeHeader(msg.MessageID),
			normalizeDate(msg.Date),
			NormalizeSender(msg.From),
			NormalizeHeader(msg.Subject),
			msg.BodyText,
		}
	}

	d := xxhash.New()
	for i, f := range fields {
		if i > 0 {
			_, _ = d.WriteString(fieldSep)
		}
		_, _ = d.WriteString(f)
	}
	return model.Fingerprint(fmt.Sprintf("%016x", d.Sum64()))
}

// NormalizeHeader trims and case-folds a header value.
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSender reduces a From header to its bare lowercase address:
// "Jane Doe <Jane@Example.COM>" becomes "jane@example.com". Unparsable
// values fall back to the trimmed, case-folded raw header so they still
// compare stably.
func NormalizeSender(fromHeader string) string {
	if fromHeader == "" {
		return ""
	}
	addr, err := mail.ParseAddress(fromHeader)
	if err != nil || addr == nil {
		return NormalizeHeader(fromHeader)
	}
	return strings.ToLower(strings.TrimSpace(addr.Address))
}

// NormalizeBody collapses whitespace runs in a message body to single
// spaces and trims the result, so formatting-only differences do not
// defeat content comparison.
func NormalizeBody(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeDate renders a parsed date in a canonical form. The zero value
// (missing or unparsable date) contributes an empty field.
func normalizeDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
