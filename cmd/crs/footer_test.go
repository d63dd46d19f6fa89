package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raderre/cresite/internal/gesture"
)

// stepClock is a manual clock; timers never fire on their own.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) AfterFunc(time.Duration, func()) gesture.Timer { return noopTimer{} }

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestFooterView_TripleClickNavigates(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	fv := newFooterView(clock)
	defer fv.close()

	if fv.key(' ') {
		t.Fatal("first click should not stop reading")
	}
	clock.advance(200 * time.Millisecond)
	if fv.key('\r') {
		t.Fatal("second click should not stop reading")
	}
	clock.advance(gesture.Threshold)
	if !fv.key(' ') {
		t.Fatal("third click within threshold should complete the gesture")
	}

	select {
	case path := <-fv.navigate:
		if path != gesture.AuthPath {
			t.Fatalf("navigated to %q, want %q", path, gesture.AuthPath)
		}
	default:
		t.Fatal("expected a navigation")
	}
}

func TestFooterView_SlowClicksDoNotNavigate(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	fv := newFooterView(clock)
	defer fv.close()

	for i := 0; i < 5; i++ {
		if fv.key(' ') {
			t.Fatalf("click %d should not complete the gesture", i+1)
		}
		clock.advance(gesture.Threshold + time.Millisecond)
	}
	select {
	case path := <-fv.navigate:
		t.Fatalf("unexpected navigation to %q", path)
	default:
	}
}

func TestFooterView_Quit(t *testing.T) {
	tests := []struct {
		name string
		b    byte
	}{
		{"q", 'q'},
		{"esc", 0x1b},
		{"ctrl-c", 0x03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := newFooterView(&stepClock{})
			defer fv.close()
			if !fv.key(tt.b) {
				t.Fatal("quit key should stop reading")
			}
			select {
			case <-fv.quit:
			default:
				t.Fatal("quit channel should be closed")
			}
		})
	}
}

func TestFooterView_ReadKeys(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	fv := newFooterView(clock)
	defer fv.close()

	// Other keys are ignored; reading stops at the completing click and the
	// trailing "q" is left unread.
	fv.readKeys(strings.NewReader("x  yq"))
	// Only two clicks at the same instant; no gesture yet.
	select {
	case <-fv.navigate:
		t.Fatal("two clicks should not navigate")
	case <-fv.quit:
	default:
		t.Fatal("q should have quit")
	}

	fv2 := newFooterView(clock)
	defer fv2.close()
	fv2.readKeys(strings.NewReader("   q"))
	select {
	case <-fv2.navigate:
	default:
		t.Fatal("three clicks should navigate")
	}
	select {
	case <-fv2.quit:
		t.Fatal("reading should stop before the q")
	default:
	}
}

func TestRawWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := rawWriter{&buf}.Write([]byte("a\nb\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("n = %d, want 4", n)
	}
	if buf.String() != "a\r\nb\r\n" {
		t.Errorf("got %q", buf.String())
	}
}
