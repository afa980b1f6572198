// Package slackapi wraps the Slack Web API behind the sync engine's
// provider interface, with shared rate limiting.
package slackapi

import (
	"context"
	"errors"

	"github.com/slack-go/slack"

	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

type Client struct {
	slack *slack.Client
	api   *apiclient.Client
}

func NewClient(botToken string, api *apiclient.Client) *Client {
	return &Client{
		slack: slack.New(botToken),
		api:   api,
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		return &apiclient.RateLimitError{Source: "slack", Msg: err.Error()}
	}
	var serr slack.SlackErrorResponse
	if errors.As(err, &serr) {
		switch serr.Err {
		case "invalid_auth", "token_revoked", "token_expired", "not_authed", "account_inactive":
			return &apiclient.AuthError{Source: "slack", Status: 401, Msg: serr.Err}
		}
		return errors.New("slack: " + serr.Err)
	}
	return &apiclient.TransientError{Source: "slack", Err: err}
}

func (c *Client) ListChannels(ctx context.Context, userID string) ([]slack.Channel, error) {
	var channels []slack.Channel
	cursor := ""
	for {
		var page []slack.Channel
		var next string
		err := c.api.Do(ctx, userID, "slack", func() error {
			var err error
			page, next, err = c.slack.GetConversationsContext(ctx, &slack.GetConversationsParameters{
				Types:           []string{"public_channel", "private_channel"},
				ExcludeArchived: true,
				Limit:           200,
				Cursor:          cursor,
			})
			return classify(err)
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, page...)
		if next == "" {
			return channels, nil
		}
		cursor = next
	}
}

// ChannelHistory fetches one page of messages. Oldest is the stored
// per-channel cursor; Slack returns newest first.
func (c *Client) ChannelHistory(ctx context.Context, userID, channelID, oldest, cursor string) ([]slack.Message, string, bool, error) {
	var resp *slack.GetConversationHistoryResponse
	err := c.api.Do(ctx, userID, "slack", func() error {
		var err error
		resp, err = c.slack.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Oldest:    oldest,
			Cursor:    cursor,
			Limit:     100,
		})
		if err != nil {
			return classify(err)
		}
		if !resp.Ok {
			return classify(slack.SlackErrorResponse{Err: resp.Error})
		}
		return nil
	})
	if err != nil {
		return nil, "", false, err
	}
	return resp.Messages, resp.ResponseMetaData.NextCursor, resp.HasMore, nil
}
