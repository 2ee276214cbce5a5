package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/model"
)

// Provider is one upstream gateway. SMS and MMS travel on separate endpoints.
type Provider interface {
	Name() string
	Ready() bool
	Acquire() bool
	SendSMS(ctx context.Context, sms model.SMS) error
	SendMMS(ctx context.Context, sms model.SMS) error
}

type HTTPProvider struct {
	name    string
	baseURL string
	smsPath string
	mmsPath string
	client  *http.Client
	br      *Breaker
}

func NewHTTPProvider(cfg config.ProviderConfig) *HTTPProvider {
	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}
	openForMs := cfg.Breaker.OpenForMs
	if openForMs <= 0 {
		openForMs = 15000
	}
	smsPath, mmsPath := cfg.SMSPath, cfg.MMSPath
	if smsPath == "" {
		smsPath = "/sms"
	}
	if mmsPath == "" {
		mmsPath = "/mms"
	}

	return &HTTPProvider{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		smsPath: smsPath,
		mmsPath: mmsPath,
		client:  &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:      NewBreaker(cfg.Breaker.FailThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

func (p *HTTPProvider) Name() string  { return p.name }
func (p *HTTPProvider) Ready() bool   { return p.br.Ready() }
func (p *HTTPProvider) Acquire() bool { return p.br.TryAcquire() }

func (p *HTTPProvider) SendSMS(ctx context.Context, sms model.SMS) error {
	return p.send(ctx, p.smsPath, sms)
}

func (p *HTTPProvider) SendMMS(ctx context.Context, sms model.SMS) error {
	return p.send(ctx, p.mmsPath, sms)
}

func (p *HTTPProvider) send(ctx context.Context, path string, sms model.SMS) error {
	if err := p.post(ctx, path, sms); err != nil {
		p.br.OnFailure()
		return err
	}
	p.br.OnSuccess()
	return nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, sms model.SMS) error {
	b, err := json.Marshal(sms)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("provider=%s path=%s status=%d", p.name, path, res.StatusCode)
	}
	return nil
}
