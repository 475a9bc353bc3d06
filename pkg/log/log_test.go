package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/filedeck/pkg/log"
)

// TestGinWriter 按级别转发，空行被忽略.
func TestGinWriter(t *testing.T) {
	var buf bytes.Buffer

	zl := zerolog.New(&buf).Level(zerolog.DebugLevel)
	w := log.NewGinWriter(&zl, zerolog.WarnLevel)

	n, err := w.Write([]byte("route conflict\n"))
	if err != nil || n != len("route conflict\n") {
		t.Fatalf("Unexpected write result n=%d err=%v", n, err)
	}

	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "route conflict") {
		t.Errorf("Expected warn line, got %s", buf.String())
	}

	buf.Reset()

	if _, err := w.Write([]byte("   \n")); err != nil {
		t.Fatal(err)
	}

	if buf.Len() != 0 {
		t.Errorf("Expected blank input to be dropped, got %s", buf.String())
	}
}
