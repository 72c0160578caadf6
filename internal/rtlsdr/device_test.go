package rtlsdr

import (
	"testing"
	"time"
)

func TestWaitStopped(t *testing.T) {
	stopped := make(chan struct{})
	if waitStopped(stopped, 0) {
		t.Fatalf("Running transfer reported as stopped")
	}
	if waitStopped(stopped, 10*time.Millisecond) {
		t.Fatalf("Running transfer reported as stopped after the grace period")
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		close(stopped)
	}()
	if !waitStopped(stopped, time.Second) {
		t.Fatalf("Transfer stopping within the grace period was not noticed")
	}
	if !waitStopped(stopped, 0) {
		t.Errorf("Stopped transfer not reported on a plain check")
	}
}
