package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thedividend/dividend/internal/payment"
	"github.com/thedividend/dividend/internal/tokens"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderFromStdin(t *testing.T) {
	out, err := run(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`, "render", "-")
	require.NoError(t, err)
	require.Equal(t, "<div class=\"article-content\"><p>hi</p></div>\n", out)

	out, err = run(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"two words"}]}]}`, "render", "--plain")
	require.NoError(t, err)
	require.Equal(t, "two words\nread time: 1 min\n", out)

	_, err = run(t, `{`, "render")
	require.Error(t, err)
}

func TestSign(t *testing.T) {
	t.Setenv("PAYSTACK_WEBHOOK_SECRET", "")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_env")
	body := `{"event":"charge.success"}`

	out, err := run(t, body, "sign")
	require.NoError(t, err)
	require.Equal(t, payment.Sign([]byte("sk_env"), []byte(body))+"\n", out)

	out, err = run(t, body, "sign", "--secret", "flag")
	require.NoError(t, err)
	require.Equal(t, payment.Sign([]byte("flag"), []byte(body))+"\n", out)

	t.Setenv("PAYSTACK_SECRET_KEY", "")
	_, err = run(t, body, "sign")
	require.Error(t, err)
}

func TestToken(t *testing.T) {
	out, err := run(t, "", "token", "--secret", "s3cret", "--sub", "u1", "--role", "admin")
	require.NoError(t, err)

	tok, err := tokens.NewVerifier("s3cret").Verify(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "u1", claims["sub"])
	require.Equal(t, "admin", claims["role"])

	_, err = run(t, "", "token", "--secret", "s3cret", "--sub", "u1", "--role", "root")
	require.Error(t, err)
	_, err = run(t, "", "token", "--secret", "s3cret")
	require.Error(t, err)
}
