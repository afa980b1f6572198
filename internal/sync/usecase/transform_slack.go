package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

// parseSlackTS converts a Slack "1700000000.123456" timestamp.
func parseSlackTS(ts string) *time.Time {
	seconds, _, found := strings.Cut(ts, ".")
	if !found {
		seconds = ts
	}
	epoch, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(epoch, 0)
	return &t
}

func transformSlackChannel(userID string, channel slack.Channel) *syncdomain.SlackChannel {
	return &syncdomain.SlackChannel{
		UserID:         userID,
		SlackChannelID: channel.ID,
		Name:           channel.Name,
		Topic:          channel.Topic.Value,
		IsPrivate:      channel.IsPrivate,
		MemberCount:    channel.NumMembers,
	}
}

// transformSlackMessage normalizes one message. System subtypes
// (joins, topic changes) and empty messages carry no sync value and
// come back as an error so the caller can count them as skipped.
func transformSlackMessage(userID, channelID string, msg slack.Message) (*syncdomain.SlackMessage, error) {
	if msg.Timestamp == "" {
		return nil, fmt.Errorf("message has no timestamp")
	}
	if msg.SubType != "" && msg.SubType != "thread_broadcast" {
		return nil, fmt.Errorf("skipping subtype %q", msg.SubType)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil, fmt.Errorf("message has no text")
	}
	out := &syncdomain.SlackMessage{
		UserID:         userID,
		SlackChannelID: channelID,
		MessageTS:      msg.Timestamp,
		ThreadTS:       msg.ThreadTimestamp,
		SlackUserID:    msg.User,
		Text:           msg.Text,
		SentAt:         parseSlackTS(msg.Timestamp),
		RawData:        mustJSON(msg),
	}
	out.EmbeddingText = truncate(strings.TrimSpace(msg.Text), emailEmbeddingMaxLen)
	return out, nil
}
