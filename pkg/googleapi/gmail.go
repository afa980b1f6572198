package googleapi

import (
	"context"
	"errors"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

type gmailProvider struct {
	srv    *gmail.Service
	api    *apiclient.Client
	userID string
}

func (p *gmailProvider) do(ctx context.Context, fn func() error) error {
	return p.api.Do(ctx, p.userID, "gmail", func() error {
		return apiclient.ClassifyGoogleError("gmail", fn())
	})
}

func (p *gmailProvider) ListMessageIDs(ctx context.Context, query, pageToken string, pageSize int64) ([]string, string, error) {
	var resp *gmail.ListMessagesResponse
	err := p.do(ctx, func() error {
		call := p.srv.Users.Messages.List("me").Q(query).MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, "", err
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, resp.NextPageToken, nil
}

func (p *gmailProvider) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := p.do(ctx, func() error {
		var err error
		msg, err = p.srv.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ProfileHistoryID returns the mailbox's current history watermark,
// captured at the end of a full sync so the next incremental run has a
// starting point.
func (p *gmailProvider) ProfileHistoryID(ctx context.Context) (uint64, error) {
	var profile *gmail.Profile
	err := p.do(ctx, func() error {
		var err error
		profile, err = p.srv.Users.GetProfile("me").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}
	return profile.HistoryId, nil
}

func (p *gmailProvider) ListHistory(ctx context.Context, startHistoryID uint64, pageToken string) (*gmail.ListHistoryResponse, error) {
	var resp *gmail.ListHistoryResponse
	// Gmail answers 404 when the start history ID has aged out, which
	// means the stored cursor is unusable, not that the mailbox vanished.
	err := p.api.Do(ctx, p.userID, "gmail", func() error {
		call := p.srv.Users.History.List("me").
			StartHistoryId(startHistoryID).
			HistoryTypes("messageAdded", "messageDeleted")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var err error
		resp, err = call.Context(ctx).Do()
		if err != nil {
			classified := apiclient.ClassifyGoogleError("gmail", err)
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && gerr.Code == 404 {
				return &apiclient.CursorInvalidError{Source: "gmail", Msg: "history id expired"}
			}
			return classified
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
