package site

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkResolver_Resolve(t *testing.T) {
	var gotToken, gotDevice string
	resolver := NewLinkResolver(ResolverFunc(func(_ context.Context, token, deviceType string) (string, error) {
		gotToken, gotDevice = token, deviceType
		return "https://aod.cos.tx.xmcdn.com/a.m4a", nil
	}), "", nil)

	link, err := resolver.Resolve(context.Background(), "enc-token", "")
	require.NoError(t, err)
	assert.Equal(t, &ResolvedLink{
		SourceToken: "enc-token",
		DeviceType:  DefaultDeviceType,
		ResolvedURL: "https://aod.cos.tx.xmcdn.com/a.m4a",
	}, link)
	assert.Equal(t, "enc-token", gotToken)
	assert.Equal(t, "www", gotDevice)

	link, err = resolver.Resolve(context.Background(), "enc-token", "ios")
	require.NoError(t, err)
	assert.Equal(t, "ios", link.DeviceType)
	assert.Equal(t, "ios", gotDevice)
}

func TestLinkResolver_Failures(t *testing.T) {
	cause := errors.New("bad padding")

	t.Run("wraps cause", func(t *testing.T) {
		resolver := NewLinkResolver(ResolverFunc(func(context.Context, string, string) (string, error) {
			return "", cause
		}), "www", nil)

		_, err := resolver.Resolve(context.Background(), "tok", "")

		var decryptErr *DecryptError
		require.ErrorAs(t, err, &decryptErr)
		assert.Equal(t, "tok", decryptErr.Token)
		assert.Equal(t, "www", decryptErr.DeviceType)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("passes decrypt error through", func(t *testing.T) {
		original := &DecryptError{Token: "tok", DeviceType: "android", Err: cause}
		resolver := NewLinkResolver(ResolverFunc(func(context.Context, string, string) (string, error) {
			return "", original
		}), "www", nil)

		_, err := resolver.Resolve(context.Background(), "tok", "")
		assert.Same(t, original, err)
	})

	t.Run("empty url", func(t *testing.T) {
		resolver := NewLinkResolver(ResolverFunc(func(context.Context, string, string) (string, error) {
			return "", nil
		}), "www", nil)

		_, err := resolver.Resolve(context.Background(), "tok", "")
		var decryptErr *DecryptError
		assert.ErrorAs(t, err, &decryptErr)
	})

	t.Run("no resolver", func(t *testing.T) {
		_, err := NewLinkResolver(nil, "www", nil).Resolve(context.Background(), "tok", "")
		var decryptErr *DecryptError
		assert.ErrorAs(t, err, &decryptErr)
	})

	t.Run("empty token", func(t *testing.T) {
		called := false
		resolver := NewLinkResolver(ResolverFunc(func(context.Context, string, string) (string, error) {
			called = true
			return "x", nil
		}), "www", nil)

		_, err := resolver.Resolve(context.Background(), " ", "")
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.False(t, called)
	})
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandResolver(t *testing.T) {
	requireShell(t)
	ctx := context.Background()

	t.Run("reads first line", func(t *testing.T) {
		c := CommandResolver{
			Command: "sh",
			Args:    []string{"-c", `echo; echo "https://cdn.example/$0?device=$1"; echo trailing`},
		}
		url, err := c.Resolve(ctx, "tok", "www")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/tok?device=www", url)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		c := CommandResolver{Command: "sh", Args: []string{"-c", "echo bad token >&2; exit 3"}}
		_, err := c.Resolve(ctx, "tok", "www")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exited with code 3")
		assert.Contains(t, err.Error(), "bad token")
	})

	t.Run("timeout", func(t *testing.T) {
		c := CommandResolver{Command: "sh", Args: []string{"-c", "sleep 5"}, Timeout: 50 * time.Millisecond}
		_, err := c.Resolve(ctx, "tok", "www")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := CommandResolver{}.Resolve(ctx, "tok", "www")
		assert.Error(t, err)
	})

	t.Run("through link resolver", func(t *testing.T) {
		resolver := NewLinkResolver(CommandResolver{Command: "sh", Args: []string{"-c", "exit 1"}}, "www", nil)
		_, err := resolver.Resolve(ctx, "tok", "")
		var decryptErr *DecryptError
		assert.ErrorAs(t, err, &decryptErr)
	})
}
