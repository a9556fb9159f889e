package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/logging"
)

// probeScript fetches url from inside the page so the browser attaches the
// profile cookies itself.
const probeScript = `async (url) => {
  try {
    const response = await fetch(url, { method: 'GET', credentials: 'include' });
    const body = await response.text();
    return { ok: response.ok, status: response.status, body: body };
  } catch (error) {
    return { ok: false, status: 0, error: String((error && error.message) || error) };
  }
}`

// ProbeOptions configures a LoginProbe.
type ProbeOptions struct {
	BaseURL string

	// Settle is waited before probing so cookies written by the last
	// navigation are in place
	Settle time.Duration
}

// LoginProbe reports whether the browser profile is signed in.
type LoginProbe struct {
	session *browser.Session
	url     string
	settle  time.Duration
	logger  *logging.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewLoginProbe creates a probe over session.
func NewLoginProbe(session *browser.Session, opts ProbeOptions, logger *logging.Logger) *LoginProbe {
	if logger == nil {
		logger = logging.Discard("probe")
	}
	return &LoginProbe{
		session: session,
		url:     trimBase(opts.BaseURL) + CurrentUserPath,
		settle:  opts.Settle,
		logger:  logger,
		sleep:   browser.Sleep,
	}
}

type currentUserEnvelope struct {
	Data *struct {
		UID        int64  `json:"uid"`
		Nickname   string `json:"nickname"`
		IsLoginBan bool   `json:"isLoginBan"`
	} `json:"data"`
}

// Check never fails. Anything that prevents a definite answer is logged and
// reported as logged out.
func (p *LoginProbe) Check(ctx context.Context) LoginState {
	state, err := p.check(ctx)
	if err != nil {
		p.logger.Warnf("Login check failed, assuming logged out: %v", err)
		return LoginState{}
	}

	if state.IsLoggedIn {
		p.logger.Infof("Logged in as %s (uid %d)", state.Identity.Nickname, state.Identity.UID)
	} else {
		p.logger.Infof("Not logged in")
	}
	return state
}

func (p *LoginProbe) check(ctx context.Context) (LoginState, error) {
	if err := p.session.EnsureReady(ctx); err != nil {
		return LoginState{}, &ProbeError{URL: p.url, Err: err}
	}
	if err := p.sleep(ctx, p.settle); err != nil {
		return LoginState{}, &ProbeError{URL: p.url, Err: err}
	}

	page, err := p.session.Page()
	if err != nil {
		return LoginState{}, &ProbeError{URL: p.url, Err: err}
	}

	raw, err := page.Evaluate(probeScript, p.url)
	if err != nil {
		return LoginState{}, &ProbeError{URL: p.url, Err: fmt.Errorf("in-page fetch failed: %w", err)}
	}

	result, ok := raw.(map[string]interface{})
	if !ok {
		return LoginState{}, &ProbeError{URL: p.url, Err: fmt.Errorf("unexpected probe result %T", raw)}
	}

	status := toInt(result["status"])
	body, _ := result["body"].(string)
	if msg, ok := result["error"].(string); ok && msg != "" {
		return LoginState{}, &ProbeError{URL: p.url, Status: status, Err: errors.New(msg)}
	}
	if status != 200 {
		return LoginState{}, &ProbeError{URL: p.url, Status: status, Body: body, Err: errors.New("unexpected status")}
	}

	var envelope currentUserEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return LoginState{}, &ProbeError{URL: p.url, Status: status, Body: body, Err: fmt.Errorf("failed to parse identity: %w", err)}
	}

	if envelope.Data == nil {
		return LoginState{}, nil
	}

	identity := &Identity{
		UID:      envelope.Data.UID,
		Nickname: envelope.Data.Nickname,
		IsBanned: envelope.Data.IsLoginBan,
	}
	return LoginState{
		IsLoggedIn: identity.UID != 0 && !identity.IsBanned,
		Identity:   identity,
	}, nil
}

// toInt converts a number decoded by the driver.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
