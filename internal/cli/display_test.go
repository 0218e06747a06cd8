package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDisplay_ServesUntilCancelled(t *testing.T) {
	globals, e := testEnv(t)
	ready := make(chan string, 1)
	cmd := &DisplayCommand{
		MinTransitions: 1,
		Host:           "127.0.0.1",
		Port:           freePort(t),
		Args:           inputArg{Input: writeLog(t, navigationLog)},
		globals:        globals,
		ready:          ready,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- cmd.serve(ctx, e) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-errCh:
		t.Fatalf("serve returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	assert.Equal(t, "127.0.0.1:"+strconv.Itoa(cmd.Port), addr)

	status, body := get(t, "http://"+addr+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="min" min="0" value="1"`)

	status, body = get(t, "http://"+addr+"/diagram.json?min=2")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"min_transitions": 2`)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestDisplay_AddrOverrides(t *testing.T) {
	_, e := testEnv(t)
	assert.Equal(t, "127.0.0.1:8750", (&DisplayCommand{}).addr(e))
	assert.Equal(t, "0.0.0.0:8750", (&DisplayCommand{Host: "0.0.0.0"}).addr(e))
	assert.Equal(t, "127.0.0.1:9000", (&DisplayCommand{Port: 9000}).addr(e))
}

func TestDisplay_UnknownRunFailsBeforeListening(t *testing.T) {
	globals, e := testEnv(t)
	cmd := &DisplayCommand{MinTransitions: -1, RunID: "RUN-missing", globals: globals}
	assert.Error(t, cmd.serve(context.Background(), e))
}
