package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

const alertTag = "blood-need-alert"

// PostmarkSender delivers email alerts through Postmark.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

func NewPostmarkSender(serverToken, accountToken, from string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	if from == "" {
		return nil, fmt.Errorf("%w: sender email is required", ErrInvalidConfig)
	}
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, to string, msg Message) (Result, error) {
	if to == "" {
		return Result{}, fmt.Errorf("%w: empty recipient", ErrSendFailed)
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.from,
		To:         to,
		Subject:    msg.Subject,
		Tag:        alertTag,
		HTMLBody:   msg.HTML,
		TextBody:   msg.Text,
		TrackOpens: true,
	})
	if err != nil {
		return Result{}, errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return Result{}, errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return Result{ProviderRef: resp.MessageID}, nil
}
