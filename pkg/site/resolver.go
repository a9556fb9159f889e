package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/entrhq/albumscout/pkg/logging"
)

// TokenResolver turns an obfuscated media token into a playable URL.
type TokenResolver interface {
	Resolve(ctx context.Context, token, deviceType string) (string, error)
}

// ResolverFunc adapts a function to TokenResolver.
type ResolverFunc func(ctx context.Context, token, deviceType string) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context, token, deviceType string) (string, error) {
	return f(ctx, token, deviceType)
}

// LinkResolver hands tokens to a TokenResolver. It adds no retries and no
// caching; resolver failures come back as *DecryptError.
type LinkResolver struct {
	resolver      TokenResolver
	defaultDevice string
	logger        *logging.Logger
}

// NewLinkResolver creates a LinkResolver. Calls without a device type use
// defaultDevice (DefaultDeviceType when empty).
func NewLinkResolver(resolver TokenResolver, defaultDevice string, logger *logging.Logger) *LinkResolver {
	if defaultDevice == "" {
		defaultDevice = DefaultDeviceType
	}
	if logger == nil {
		logger = logging.Discard("resolver")
	}
	return &LinkResolver{
		resolver:      resolver,
		defaultDevice: defaultDevice,
		logger:        logger,
	}
}

// Resolve returns the playable URL for token.
func (r *LinkResolver) Resolve(ctx context.Context, token, deviceType string) (*ResolvedLink, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &ValidationError{Field: "token", Value: token, Reason: "must not be empty"}
	}
	if deviceType == "" {
		deviceType = r.defaultDevice
	}
	if r.resolver == nil {
		return nil, &DecryptError{Token: token, DeviceType: deviceType, Err: errors.New("no resolver configured")}
	}

	resolved, err := r.resolver.Resolve(ctx, token, deviceType)
	if err != nil {
		var decryptErr *DecryptError
		if errors.As(err, &decryptErr) {
			return nil, err
		}
		return nil, &DecryptError{Token: token, DeviceType: deviceType, Err: err}
	}
	if resolved == "" {
		return nil, &DecryptError{Token: token, DeviceType: deviceType, Err: errors.New("resolver returned an empty URL")}
	}

	r.logger.Debugf("Resolved token for device %s", deviceType)
	return &ResolvedLink{
		SourceToken: token,
		DeviceType:  deviceType,
		ResolvedURL: resolved,
	}, nil
}

// CommandResolver runs an external program as
// "<Command> <Args...> <token> <deviceType>" and reads the URL from the first
// non-empty line of its stdout.
type CommandResolver struct {
	Command string
	Args    []string

	// Timeout bounds one run; zero means no limit beyond ctx
	Timeout time.Duration
}

func (c CommandResolver) Resolve(ctx context.Context, token, deviceType string) (string, error) {
	if c.Command == "" {
		return "", errors.New("resolver command is not configured")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.Args...), token, deviceType)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	// Children that inherited stdout must not hold Run open after a kill
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("resolver command interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("resolver command exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("failed to run resolver command: %w", err)
	}

	for _, line := range strings.Split(stdout.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", nil
}
