package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/shiny-updates/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/wp-admin/admin-ajax.php", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	require.NoError(t, err)
	return c
}

func TestClientSend(t *testing.T) {
	var got http.Header
	var form map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.Header
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"slug":"test","plugin":"test/test.php","pluginName":"Test","oldVersion":"1.0","newVersion":"1.1"}}`)
	}, WithCookie("wordpress_logged_in=abc"))

	resp, err := c.Send(context.Background(), &core.Request{
		Action:      core.KindUpdatePlugin,
		Nonce:       "n0nce",
		Credentials: core.Credentials{Hostname: "ftp.example.com", Username: "admin", Password: "pw", FSNonce: "fsn"},
		Payload:     core.Payload{Plugin: "test/test.php", Slug: "test"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "1.1", resp.Data.NewVersion)
	assert.Equal(t, "Test", resp.Data.PluginName)

	assert.Equal(t, "update-plugin", form["action"])
	assert.Equal(t, "n0nce", form["_ajax_nonce"])
	assert.Equal(t, "fsn", form["_fs_nonce"])
	assert.Equal(t, "test", form["slug"])
	assert.Equal(t, "test/test.php", form["plugin"])
	assert.Equal(t, "ftp.example.com", form["hostname"])
	assert.Equal(t, "wordpress_logged_in=abc", got.Get("Cookie"))
	assert.Equal(t, "XMLHttpRequest", got.Get("X-Requested-With"))
}

func TestClientSendFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		check   func(t *testing.T, resp *core.Response)
	}{
		{
			name:   "server reported failure is not an error",
			status: http.StatusInternalServerError,
			body:   `{"success":false,"data":{"slug":"x","errorCode":"unable_to_connect_to_filesystem","errorMessage":"Could not connect."}}`,
			check: func(t *testing.T, resp *core.Response) {
				assert.False(t, resp.Success)
				assert.Equal(t, core.CodeFilesystemUnreachable, resp.Data.ErrorCode)
				assert.Equal(t, "Could not connect.", resp.Data.Message())
			},
		},
		{name: "rejected nonce", status: http.StatusForbidden, body: "-1", wantErr: core.ErrInvalidNonce},
		{name: "unknown action", status: http.StatusBadRequest, body: "0", wantErr: ErrUnknownAction},
		{name: "html error page", status: http.StatusBadGateway, body: "<html>bad gateway</html>", wantErr: ErrBadResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			resp, err := c.Send(context.Background(), &core.Request{Action: core.KindUpdateTheme, Payload: core.Payload{Slug: "x"}})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, resp)
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c, err := NewClient(endpoint, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	_, err = c.Send(context.Background(), &core.Request{Action: core.KindUpdateCore})
	require.Error(t, err)

	opErr := core.FailureFrom(core.NewJob(core.KindUpdateCore, core.Payload{}), nil, err)
	assert.Equal(t, core.ClassTransport, opErr.Class)
}

func TestClientList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "search-install-plugins", r.PostForm.Get("action"))
		assert.Equal(t, "seo", r.PostForm.Get("s"))
		assert.Equal(t, "search-nonce", r.PostForm.Get("_ajax_nonce"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"count":1,"items":"<div class=\"plugin-card\">SEO</div>"}}`)
	}, WithNonce("search-nonce"))

	items, err := c.List(context.Background(), "search-install-plugins", "seo")
	require.NoError(t, err)
	assert.Equal(t, `<div class="plugin-card">SEO</div>`, items)
}

func TestClientListCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.List(ctx, "search-plugins", "a")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	_, err := NewClient("ftp://example.com", time.Second, slog.Default())
	assert.Error(t, err)
	_, err = NewClient("://", time.Second, slog.Default())
	assert.Error(t, err)
}
