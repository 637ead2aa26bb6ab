package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/appshell/pkg/fonts"
)

func TestSpinnerSilentWithoutTerminal(t *testing.T) {
	// go test never attaches stderr to a terminal.
	s := newSpinner("Loading font catalog...")
	if s.out != io.Discard {
		t.Errorf("spinner output = %T, want io.Discard", s.out)
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s := newSpinner("unused")

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on an unstarted spinner blocked")
	}
	if s.Cancelled() {
		t.Error("Stop alone should not mark the spinner cancelled")
	}
	if s.ctx.Err() == nil {
		t.Error("Stop should release the spinner context")
	}
}

func TestSpinnerConcurrentStop(t *testing.T) {
	s := newSpinner("Loading font catalog...")
	s.Start()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Stop()
		}()
	}
	wg.Wait()

	s.Stop()
	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop, want false")
	}
}

func TestSpinnerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Loading font catalog...")
	s.Start()

	cancel()
	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after its context was cancelled")
	}
	if !s.Cancelled() {
		t.Error("Cancelled() = false after the parent context ended")
	}
	s.Stop()
}

func TestSpinCatalogLoad(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, log.InfoLevel))

	loader := fonts.NewCatalogLoader(fonts.Static(fonts.Catalog{
		{Name: "Noto Sans", StyleHandle: "font-noto-sans"},
		{Name: "Kosugi", StyleHandle: "font-kosugi"},
	}))

	cat, err := spin(ctx, "Loading font catalog...", loader.EnsureLoaded, catalogSummary)
	if err != nil {
		t.Fatalf("spin() error: %v", err)
	}
	if len(cat) != 2 {
		t.Errorf("catalog has %d fonts, want 2", len(cat))
	}

	out := buf.String()
	if !strings.Contains(out, "Loaded 2 fonts") || !strings.Contains(out, "elapsed=") {
		t.Errorf("progress output = %q", out)
	}
}

func TestSpinCatalogLoadFailure(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, log.InfoLevel))

	errUnreachable := errors.New("catalog host unreachable")
	loader := fonts.NewCatalogLoader(func(context.Context) (fonts.Catalog, error) {
		return nil, errUnreachable
	})

	_, err := spin(ctx, "Loading font catalog...", loader.EnsureLoaded, catalogSummary)
	if !errors.Is(err, errUnreachable) {
		t.Fatalf("spin() error = %v, want the load error", err)
	}
	if strings.Contains(buf.String(), "Loaded") {
		t.Errorf("failed load logged a summary: %q", buf.String())
	}
}
