package signals

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"
)

func ExampleWithSignals() {
	ctx := WithSignals(context.Background(), syscall.SIGUSR1)
	go func() {
		time.Sleep(10 * time.Millisecond) // after some time SIGUSR1 is sent
		// mimicking a signal from the outside
		syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
	}()

	<-ctx.Done()
	fmt.Println("finished")
	// Output:
	// finished
}

func TestWithSignals(t *testing.T) {
	// keep SIGUSR2 from terminating the test binary when no context listens for it
	guard := make(chan os.Signal, 1)
	signal.Notify(guard, syscall.SIGUSR2)
	defer signal.Stop(guard)

	tests := []struct {
		name       string
		sigs       []os.Signal
		wantSignal bool
	}{
		{
			name:       "sending signal SIGUSR2 should exit context.",
			sigs:       []os.Signal{syscall.SIGUSR2},
			wantSignal: true,
		},
		{
			name: "sending signal SIGUSR2 should NOT exit context.",
			sigs: []os.Signal{syscall.SIGUSR1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithSignals(context.Background(), tt.sigs...)
			syscall.Kill(syscall.Getpid(), syscall.SIGUSR2)
			timer := time.NewTimer(500 * time.Millisecond)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				if !tt.wantSignal {
					t.Errorf("unexpected exit with signal")
				}
			case <-timer.C:
				if tt.wantSignal {
					t.Errorf("expected to exit with signal but did not")
				}
			}
		})
	}
}

func TestWithSignalsParentCanceled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := WithSignals(parent, syscall.SIGUSR1)
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled with its parent")
	}
}
