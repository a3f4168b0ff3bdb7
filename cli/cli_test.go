package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/drwin/agent"
	"github.com/richinex/drwin/config"
	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/storage"
	"github.com/richinex/drwin/tools"
)

// labelGateway answers by request label and records every request.
type labelGateway struct {
	mu      sync.Mutex
	replies map[string]string
	fail    error
	calls   []llm.Request
}

func (g *labelGateway) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.fail != nil {
		return "", g.fail
	}
	return g.replies[req.Label], nil
}

func newTestApp(t *testing.T, gw llm.Gateway, opts Options) *App {
	t.Helper()
	settings, err := config.New("gemini")
	require.NoError(t, err)
	settings.Store.Path = ""
	settings.Agent.ShowProgress = true
	app, err := NewApp(settings, gw, opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewAppWiresCatalog(t *testing.T) {
	app := newTestApp(t, &labelGateway{}, Options{Language: "es"})

	assert.Equal(t, 11, app.Registry.Len())
	assert.Equal(t, "es", app.Agent.Config().Language)
	assert.IsType(t, &storage.InMemoryStorage{}, app.Store)
	assert.Empty(t, app.MetricsAddr)
}

func TestNewAppSqliteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "drwin.db")
	app := newTestApp(t, &labelGateway{}, Options{DBPath: path})

	assert.IsType(t, &storage.SqliteStorage{}, app.Store)
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	gw := &labelGateway{replies: map[string]string{"agent:selection": "Hello!"}}
	app := newTestApp(t, gw, Options{MetricsAddr: "127.0.0.1:0"})
	require.NotEmpty(t, app.MetricsAddr)

	_, err := NewSession(app.Agent, app.Store, "").Turn(context.Background(), "hi", nil)
	require.NoError(t, err)

	resp, err := http.Get("http://" + app.MetricsAddr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `drwin_directive_strategy_total{strategy="none"} 1`)
	assert.Contains(t, string(body), `drwin_turns_total{status="success"} 1`)
}

func TestSessionPersistsSuccessfulTurns(t *testing.T) {
	ctx := context.Background()
	gw := &labelGateway{replies: map[string]string{"agent:selection": "Happy to help."}}
	a, err := agent.NewBuilder(gw).Build()
	require.NoError(t, err)
	store := storage.NewInMemoryStorage()

	s := NewSession(a, store, "s1")
	_, err = s.Turn(ctx, "first", nil)
	require.NoError(t, err)
	_, err = s.Turn(ctx, "second", nil)
	require.NoError(t, err)

	msgs, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "second", msgs[2].Text)
	assert.Equal(t, "Happy to help.", msgs[3].Text)

	// The second turn saw the first as history.
	assert.Contains(t, gw.calls[1].Parts[0].Text, "first")
}

func TestSessionSkipsFailedTurns(t *testing.T) {
	ctx := context.Background()
	gw := &labelGateway{fail: errors.New("HTTP 429 quota exceeded")}
	a, err := agent.NewBuilder(gw).Build()
	require.NoError(t, err)
	store := storage.NewInMemoryStorage()

	resp, err := NewSession(a, store, "s1").Turn(ctx, "hello", nil)
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess())

	exists, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadAttachment(t *testing.T) {
	pdf, err := LoadAttachment(writeFile(t, "call.pdf", "%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, "call.pdf", pdf.Name)
	assert.Equal(t, "application/pdf", pdf.MIMEType)
	assert.Equal(t, "JVBERi0xLjQgYm9keQ==", pdf.Data)

	notes, err := LoadAttachment(writeFile(t, "notes", "plain words"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", notes.MIMEType)

	_, err = LoadAttachment(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestChatCommands(t *testing.T) {
	gw := &labelGateway{replies: map[string]string{"agent:selection": "Got your file."}}
	app := newTestApp(t, gw, Options{})
	path := writeFile(t, "notes.txt", "budget: 100k")

	in := strings.NewReader("/attach " + path + "\nplease read it\n/attach\n/bogus\n/new\n/exit\nnever sent\n")
	var out bytes.Buffer
	require.NoError(t, Chat(context.Background(), app, in, &out, "first", Options{}))

	text := out.String()
	assert.Contains(t, text, "Attached notes.txt (text/plain")
	assert.Contains(t, text, "Got your file.")
	assert.Contains(t, text, "Usage: /attach <path>")
	assert.Contains(t, text, "Unknown command /bogus")
	assert.Contains(t, text, "Started session")
	require.Len(t, gw.calls, 1)

	msgs, err := app.Store.Load(context.Background(), "first")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Len(t, msgs[0].Attachments, 1)
	assert.Equal(t, "notes.txt", msgs[0].Attachments[0].Name)
}

func TestAskPrintsProgress(t *testing.T) {
	gw := &labelGateway{replies: map[string]string{
		"agent:selection": "```tool\n{\"tool\": \"generate_publication_metadata\", \"params\": {}}\n```",
		"agent:synthesis": "Here is what I found.",
	}}
	app := newTestApp(t, gw, Options{})

	var out bytes.Buffer
	require.NoError(t, Ask(context.Background(), app, &out, "make metadata", nil, Options{Verbose: true}))

	text := out.String()
	assert.Contains(t, text, "[1/1] Consulting Architect (Creation): generate_publication_metadata")
	assert.Contains(t, text, "Here is what I found.")
	assert.Contains(t, text, "strategy: tool_fence")
	assert.Contains(t, text, "generate_publication_metadata by Architect (Creation): failed")
}

func TestAskReturnsErrorOnFailure(t *testing.T) {
	app := newTestApp(t, &labelGateway{fail: context.DeadlineExceeded}, Options{})

	var out bytes.Buffer
	err := Ask(context.Background(), app, &out, "hi", nil, Options{})
	require.Error(t, err)
	assert.Contains(t, out.String(), "took too long")
}

func TestListTools(t *testing.T) {
	app := newTestApp(t, &labelGateway{}, Options{})

	var out bytes.Buffer
	ListTools(&out, app.Registry, true)
	text := out.String()
	for _, want := range []string{"[discovery]", "[validation]", "[creation]", "[adaptation]", "Scout (Discovery)", tools.SearchToolName, "(required)"} {
		assert.Contains(t, text, want)
	}
}

func TestExportAndHistory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, &out, store))
	assert.Contains(t, out.String(), "No stored sessions.")

	assert.Error(t, Export(ctx, &out, store, "nope", "json"))

	gw := &labelGateway{replies: map[string]string{"agent:selection": "Hola."}}
	a, err := agent.NewBuilder(gw).Build()
	require.NoError(t, err)
	_, err = NewSession(a, store, "s1").Turn(ctx, "hola", nil)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, Export(ctx, &out, store, "s1", "json"))
	assert.Contains(t, out.String(), `"sessionId": "s1"`)

	out.Reset()
	require.NoError(t, History(ctx, &out, store, "s1"))
	assert.Contains(t, out.String(), "# Conversation s1")

	assert.Error(t, Export(ctx, &out, store, "s1", "xml"))
}
