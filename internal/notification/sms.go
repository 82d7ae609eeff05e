package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const smsMessagesPath = "/2010-04-01/Accounts/{sid}/Messages.json"

type smsResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type smsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// SMSSender posts alerts to a Twilio-compatible messages API.
type SMSSender struct {
	httpClient *resty.Client
	accountSID string
	from       string
}

func NewSMSSender(baseURL, accountSID, authToken, from string) (*SMSSender, error) {
	if baseURL == "" || accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("%w: sms base url, account sid and auth token are required", ErrInvalidConfig)
	}
	if from == "" {
		return nil, fmt.Errorf("%w: sms sender number is required", ErrInvalidConfig)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetBasicAuth(accountSID, authToken).
		SetHeader("Accept", "application/json")

	return &SMSSender{
		httpClient: client,
		accountSID: accountSID,
		from:       from,
	}, nil
}

func (s *SMSSender) Send(ctx context.Context, to string, msg Message) (Result, error) {
	if to == "" {
		return Result{}, fmt.Errorf("%w: empty recipient", ErrSendFailed)
	}

	var (
		out    smsResponse
		apiErr smsError
	)
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetPathParam("sid", s.accountSID).
		SetFormData(map[string]string{
			"To":   to,
			"From": s.from,
			"Body": msg.Text,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(smsMessagesPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("%w: status %d code %d: %s", ErrSendFailed, resp.StatusCode(), apiErr.Code, apiErr.Message)
	}
	if out.SID == "" {
		return Result{}, fmt.Errorf("%w: provider returned no message sid", ErrSendFailed)
	}
	return Result{ProviderRef: out.SID}, nil
}
