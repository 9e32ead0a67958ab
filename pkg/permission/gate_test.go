package permission

import (
	"sync"
	"testing"
	"time"
)

func TestStatus_Permits(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Undetermined, false},
		{Granted, true},
		{Denied, false},
		{Restricted, true}, // restricted still permits capture
	}

	for _, tt := range tests {
		if got := tt.status.Permits(); got != tt.want {
			t.Errorf("%s.Permits() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestGate_Query_NoSideEffects(t *testing.T) {
	auth := NewStatic(Undetermined)
	g := NewGate(auth)

	if got := g.Query(); got != Undetermined {
		t.Errorf("Expected undetermined, got %s", got)
	}
	if auth.Status() != Undetermined {
		t.Error("Expected Query not to change the status")
	}
	if auth.OpenedSettings != 0 {
		t.Error("Expected Query not to open settings")
	}
}

func TestGate_Request_PromptsOnce(t *testing.T) {
	auth := NewStatic(Undetermined)
	g := NewGate(auth)

	var mu sync.Mutex
	var results []Status
	done := func(s Status) {
		mu.Lock()
		results = append(results, s)
		mu.Unlock()
	}

	g.Request(done)

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0] != Granted {
		t.Errorf("Expected one granted result, got %v", results)
	}
	if auth.Status() != Granted {
		t.Errorf("Expected status granted after prompt, got %s", auth.Status())
	}
}

func TestGate_Request_DeniedOpensSettings(t *testing.T) {
	auth := NewStatic(Denied)
	g := NewGate(auth)

	var got Status
	g.Request(func(s Status) { got = s })

	if got != Denied {
		t.Errorf("Expected denied completion, got %s", got)
	}
	if auth.OpenedSettings != 1 {
		t.Errorf("Expected settings to open once, opened %d times", auth.OpenedSettings)
	}
}

func TestGate_Request_GrantedCompletesImmediately(t *testing.T) {
	for _, status := range []Status{Granted, Restricted} {
		auth := NewStatic(status)
		g := NewGate(auth)

		var got Status
		g.Request(func(s Status) { got = s })

		if got != status {
			t.Errorf("Expected immediate %s completion, got %s", status, got)
		}
		if auth.OpenedSettings != 0 {
			t.Errorf("Expected no settings routing for %s", status)
		}
	}
}

// slowAuthorizer holds the prompt open until released, so concurrent
// requests can pile up behind it.
type slowAuthorizer struct {
	mu      sync.Mutex
	status  Status
	release chan struct{}
	prompts int
}

func (a *slowAuthorizer) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *slowAuthorizer) Request(done func(Status)) {
	a.mu.Lock()
	a.prompts++
	a.mu.Unlock()
	go func() {
		<-a.release
		a.mu.Lock()
		a.status = Granted
		a.mu.Unlock()
		done(Granted)
	}()
}

func (a *slowAuthorizer) OpenSettings() error { return nil }

func TestGate_Request_ConcurrentRequestsJoinOnePrompt(t *testing.T) {
	auth := &slowAuthorizer{release: make(chan struct{})}
	g := NewGate(auth)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completions := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		g.Request(func(s Status) {
			mu.Lock()
			completions++
			mu.Unlock()
			wg.Done()
		})
	}

	close(auth.release)

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for completions")
	}

	auth.mu.Lock()
	prompts := auth.prompts
	auth.mu.Unlock()
	if prompts != 1 {
		t.Errorf("Expected exactly one prompt, got %d", prompts)
	}

	mu.Lock()
	defer mu.Unlock()
	if completions != 5 {
		t.Errorf("Expected all 5 requests to complete, got %d", completions)
	}
}

func TestGate_Advice(t *testing.T) {
	tests := []struct {
		status Status
		want   Advice
	}{
		{Undetermined, AdviceRequest},
		{Granted, AdviceNone},
		{Denied, AdviceOpenSettings},
		{Restricted, AdviceNone},
	}

	for _, tt := range tests {
		g := NewGate(NewStatic(tt.status))
		if got := g.Advice(); got != tt.want {
			t.Errorf("Advice for %s = %s, want %s", tt.status, got, tt.want)
		}
	}
}
