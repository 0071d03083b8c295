package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func quietSpinner(ctx context.Context, msg string) (*Spinner, *bytes.Buffer) {
	s := newSpinnerWithContext(ctx, msg)
	var buf bytes.Buffer
	s.out = &buf
	return s, &buf
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	s, buf := quietSpinner(context.Background(), "Computing layout...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Computing layout...") {
		t.Errorf("spinner output %q does not contain the message", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("spinner output should end by clearing the line, got %q", out)
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	tests := []struct {
		name      string
		timeout   time.Duration
		cancelNow bool
	}{
		{"cancel", time.Minute, true},
		{"timeout", 20 * time.Millisecond, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()
			s, _ := quietSpinner(ctx, "waiting")
			s.Start()
			if tt.cancelNow {
				cancel()
			}
			time.Sleep(100 * time.Millisecond)
			if !s.Cancelled() {
				t.Error("Cancelled() = false after context ended, want true")
			}
			s.Stop()
		})
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := quietSpinner(context.Background(), "stopping")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithMessage(t *testing.T) {
	var out bytes.Buffer
	old := stdout
	stdout = &out
	defer func() { stdout = old }()

	s, _ := quietSpinner(context.Background(), "rendering")
	s.Start()
	s.StopWithSuccess("Rendered")

	s, _ = quietSpinner(context.Background(), "rendering")
	s.Start()
	s.StopWithError("Render failed")

	got := out.String()
	for _, want := range []string{"Rendered", "Render failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestSpinnerUpdate(t *testing.T) {
	s, buf := quietSpinner(context.Background(), "Loading lab.yaml...")
	s.Start()
	time.Sleep(150 * time.Millisecond)
	s.Update("Computing layout...")
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	out := buf.String()
	for _, want := range []string{"Loading lab.yaml...", "Computing layout..."} {
		if !strings.Contains(out, want) {
			t.Errorf("spinner output %q missing phase %q", out, want)
		}
	}
}

func TestSpinnerShowsElapsed(t *testing.T) {
	s, buf := quietSpinner(context.Background(), "Computing layout...")
	s.began = time.Now().Add(-3 * time.Second)
	s.Start()
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	if out := buf.String(); !strings.Contains(out, "Computing layout... 3s") {
		t.Errorf("spinner output %q missing elapsed time", out)
	}
}
