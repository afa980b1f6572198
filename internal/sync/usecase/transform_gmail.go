package usecase

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/gmail/v1"
	"gorm.io/datatypes"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

const (
	emailContentSnippetLen = 2000
	emailEmbeddingMaxLen   = 8000
	eventEmbeddingMaxLen   = 4000
)

var (
	senderRe = regexp.MustCompile(`^(.*?)\s*<(.+)>$`)
	htmlTagRe = regexp.MustCompile(`<[^>]*>`)
)

// parseSender splits "Display Name <addr@host>" into its parts. A bare
// address comes back with an empty name.
func parseSender(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if m := senderRe.FindStringSubmatch(from); m != nil {
		return strings.Trim(m[1], `" `), strings.TrimSpace(m[2])
	}
	return "", from
}

func splitAddresses(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		_, addr := parseSender(part)
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func headerMap(payload *gmail.MessagePart) map[string]string {
	headers := make(map[string]string)
	if payload == nil {
		return headers
	}
	for _, h := range payload.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}
	return headers
}

// findBody walks the MIME tree preferring text/plain; when only HTML
// exists the tags are stripped.
func findBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if plain := findPartByMIME(part, "text/plain"); plain != "" {
		return plain
	}
	if html := findPartByMIME(part, "text/html"); html != "" {
		return strings.TrimSpace(htmlTagRe.ReplaceAllString(html, " "))
	}
	return ""
}

func findPartByMIME(part *gmail.MessagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			// Gmail often omits the padding.
			decoded, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		}
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	for _, child := range part.Parts {
		if body := findPartByMIME(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func classifyEmail(labels []string) syncdomain.EmailType {
	switch {
	case hasLabel(labels, "DRAFT"):
		return syncdomain.EmailTypeDraft
	case hasLabel(labels, "SENT"):
		return syncdomain.EmailTypeSent
	default:
		return syncdomain.EmailTypeReceived
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so the cap never splits a character.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// buildEmailEmbeddingText assembles the searchable text for a message:
// subject, a content snippet, sender, and recipients, capped at the
// embedding input limit.
func buildEmailEmbeddingText(subject, content, senderEmail, senderName string, recipients []string) string {
	parts := []string{
		subject,
		truncate(content, emailContentSnippetLen),
		senderEmail,
		senderName,
		strings.Join(recipients, " "),
	}
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return truncate(strings.Join(nonEmpty, " "), emailEmbeddingMaxLen)
}

// transformGmailMessage normalizes one Gmail message. The raw payload
// is kept on the row for debugging and reprocessing.
func transformGmailMessage(userID string, msg *gmail.Message) (*syncdomain.Email, error) {
	if msg == nil || msg.Id == "" {
		return nil, fmt.Errorf("message has no id")
	}
	headers := headerMap(msg.Payload)

	senderName, senderEmail := parseSender(headers["from"])
	recipients := splitAddresses(headers["to"])
	cc := splitAddresses(headers["cc"])
	content := findBody(msg.Payload)

	var receivedAt *time.Time
	if msg.InternalDate > 0 {
		t := time.UnixMilli(msg.InternalDate)
		receivedAt = &t
	}

	email := &syncdomain.Email{
		UserID:          userID,
		GoogleMessageID: msg.Id,
		ThreadID:        msg.ThreadId,
		Subject:         headers["subject"],
		SenderEmail:     senderEmail,
		SenderName:      senderName,
		RecipientEmails: mustJSON(recipients),
		CcEmails:        mustJSON(cc),
		Content:         content,
		Snippet:         msg.Snippet,
		EmailType:       classifyEmail(msg.LabelIds),
		Labels:          mustJSON(msg.LabelIds),
		IsRead:          !hasLabel(msg.LabelIds, "UNREAD"),
		IsDeleted:       hasLabel(msg.LabelIds, "TRASH"),
		HasAttachments:  hasAttachments(msg.Payload),
		ReceivedAt:      receivedAt,
		RawData:         mustJSON(msg),
	}
	email.EmbeddingText = buildEmailEmbeddingText(email.Subject, content, senderEmail, senderName, recipients)
	return email, nil
}

func hasAttachments(part *gmail.MessagePart) bool {
	if part == nil {
		return false
	}
	if part.Filename != "" {
		return true
	}
	for _, child := range part.Parts {
		if hasAttachments(child) {
			return true
		}
	}
	return false
}

// counterpartyEmail picks the address used for customer attribution:
// the sender for received mail, the first recipient for mail we sent.
func counterpartyEmail(email *syncdomain.Email) string {
	if email.EmailType == syncdomain.EmailTypeReceived {
		return email.SenderEmail
	}
	var recipients []string
	if len(email.RecipientEmails) > 0 {
		_ = json.Unmarshal(email.RecipientEmails, &recipients)
	}
	if len(recipients) > 0 {
		return recipients[0]
	}
	return ""
}
