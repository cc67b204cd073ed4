package command

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/vedis-go/internal/core/service"
	"github.com/yndnr/vedis-go/internal/infra/shutdown"
	"github.com/yndnr/vedis-go/internal/infra/tlsroots"
	"github.com/yndnr/vedis-go/internal/infra/tlsroots/tlstest"
	"github.com/yndnr/vedis-go/internal/server/redisserver"
	"github.com/yndnr/vedis-go/internal/storage/memory"
)

func startServer(t *testing.T) (string, *shutdown.Latch) {
	t.Helper()
	return startServerTLS(t, nil)
}

func startServerTLS(t *testing.T, tlsConfig *tls.Config) (string, *shutdown.Latch) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	latch := shutdown.NewLatch()
	d := service.NewDispatcher(memory.New(), service.WithTrigger(latch), service.WithLogger(logger))

	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.TLS = tlsConfig
	srv := redisserver.New(cfg, d, redisserver.WithLogger(logger), redisserver.WithStopSignal(latch.Done()))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return srv.Addr().String(), latch
}

// run executes the CLI with an isolated config file and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("VEDIS_SERVER", "")
	t.Setenv("VEDIS_OUTPUT", "")
	t.Setenv("VEDIS_TIMEOUT", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cli.yaml")
	cfgData := "history: " + filepath.Join(dir, "history") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgData), 0600); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut

	full := append([]string{"vedis-cli", "--config", cfgPath}, args...)
	err := app.Run(full)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	addr, _ := startServer(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"ping"}, "PONG\n"},
		{[]string{"ping", "hi"}, "\"hi\"\n"},
		{[]string{"get", "k"}, "(nil)\n"},
		{[]string{"set", "k", "v1"}, "OK\n"},
		{[]string{"set", "--get", "k", "v2"}, "\"v1\"\n"},
		{[]string{"get", "k"}, "\"v2\"\n"},
		{[]string{"exists", "k", "k", "nope"}, "(integer) 2\n"},
		{[]string{"dbsize"}, "(integer) 1\n"},
		{[]string{"raw", "SET", "other", "x"}, "OK\n"},
		{[]string{"raw", "get", "other"}, "(error) ERR Unsupported command\n"},
		{[]string{"del", "k", "other", "nope"}, "(integer) 2\n"},
		{[]string{"dbsize"}, "(integer) 0\n"},
	}

	for _, step := range steps {
		got, err := run(t, "", append([]string{"--server", addr}, step.args...)...)
		if err != nil {
			t.Fatalf("%v: error = %v", step.args, err)
		}
		if got != step.want {
			t.Errorf("%v: output = %q, want %q", step.args, got, step.want)
		}
	}
}

func TestCommands_OutputFormats(t *testing.T) {
	addr, _ := startServer(t)

	if _, err := run(t, "", "-s", addr, "set", "k", "v"); err != nil {
		t.Fatalf("set error = %v", err)
	}

	tests := []struct {
		format string
		args   []string
		want   string
	}{
		{"json", []string{"get", "k"}, "\"v\"\n"},
		{"json", []string{"get", "nope"}, "null\n"},
		{"yaml", []string{"dbsize"}, "1\n"},
		{"yaml", []string{"raw", "NOPE"}, "error: ERR Unsupported command\n"},
	}

	for _, tt := range tests {
		got, err := run(t, "", append([]string{"-s", addr, "-o", tt.format}, tt.args...)...)
		if err != nil {
			t.Fatalf("%s %v: error = %v", tt.format, tt.args, err)
		}
		if got != tt.want {
			t.Errorf("%s %v: output = %q, want %q", tt.format, tt.args, got, tt.want)
		}
	}
}

func TestCommands_EnvServer(t *testing.T) {
	addr, _ := startServer(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cli.yaml")
	t.Setenv("VEDIS_SERVER", addr)

	var out bytes.Buffer
	app := App()
	app.Writer = &out
	if err := app.Run([]string{"vedis-cli", "--config", cfgPath, "ping"}); err != nil {
		t.Fatalf("ping error = %v", err)
	}
	if out.String() != "PONG\n" {
		t.Errorf("output = %q, want PONG", out.String())
	}
}

func TestCommands_Usage(t *testing.T) {
	tests := [][]string{
		{"get"},
		{"get", "a", "b"},
		{"set", "k"},
		{"del"},
		{"exists"},
		{"ping", "a", "b"},
		{"dbsize", "x"},
		{"raw"},
	}

	for _, args := range tests {
		_, err := run(t, "", append([]string{"-s", "127.0.0.1:1"}, args...)...)
		if err == nil || !strings.Contains(err.Error(), "usage:") {
			t.Errorf("%v: error = %v, want usage error", args, err)
		}
	}
}

func TestCommands_InvalidOutput(t *testing.T) {
	_, err := run(t, "", "-o", "table", "ping")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("error = %v, want unknown output format", err)
	}
}

func TestCommands_ConnectError(t *testing.T) {
	addr, _ := startServer(t)
	_, err := run(t, "", "-s", addr+"0", "-t", "500ms", "ping")
	if err == nil {
		t.Error("expected connection error")
	}
}

func TestCommands_Shutdown(t *testing.T) {
	addr, latch := startServer(t)

	got, err := run(t, "", "-s", addr, "shutdown")
	if err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
	if got != "OK\n" {
		t.Errorf("output = %q, want OK", got)
	}

	select {
	case <-latch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown trigger was not fired")
	}
}

func TestREPL(t *testing.T) {
	addr, _ := startServer(t)

	input := "SET k \"hello world\"\nGET k\nexit\n"
	got, err := run(t, input, "-s", addr, "repl")
	if err != nil {
		t.Fatalf("repl error = %v", err)
	}
	for _, want := range []string{"vedis> ", "OK\n", "\"hello world\"\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestREPL_DefaultAction(t *testing.T) {
	addr, _ := startServer(t)

	got, err := run(t, "PING\n", "-s", addr)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(got, "PONG\n") {
		t.Errorf("output %q missing PONG", got)
	}

	if _, err := run(t, "", "-s", addr, "frobnicate"); err == nil {
		t.Error("unknown command should fail")
	}
}

func TestVersion(t *testing.T) {
	got, err := run(t, "", "-o", "yaml", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(got, "version: ") || !strings.Contains(got, "go_version: ") {
		t.Errorf("output = %q", got)
	}
}

func TestCommands_TLS(t *testing.T) {
	files := tlstest.Write(t, t.TempDir())
	kp, err := tlsroots.LoadKeyPair(files.ServerCert, files.ServerKey)
	if err != nil {
		t.Fatal(err)
	}
	addr, _ := startServerTLS(t, tlsroots.ServerConfig(kp, nil))

	got, err := run(t, "", "-s", addr, "--cacert", files.CACert, "ping")
	if err != nil {
		t.Fatalf("ping over TLS error = %v", err)
	}
	if got != "PONG\n" {
		t.Errorf("output = %q, want PONG", got)
	}

	got, err = run(t, "", "-s", addr, "--insecure", "ping")
	if err != nil {
		t.Fatalf("ping with --insecure error = %v", err)
	}
	if got != "PONG\n" {
		t.Errorf("output = %q, want PONG", got)
	}

	if _, err := run(t, "", "-s", addr, "-t", "2s", "ping"); err == nil {
		t.Error("plain TCP ping to a TLS server should fail")
	}
}
