package runner

import (
	"sync"
	"testing"
)

func TestSetClientKicksPrior(t *testing.T) {
	r := newRun("id", nil)
	ch1 := make(chan []byte, 1)
	kick1 := r.SetClient(ch1)
	if !r.Info().Connected {
		t.Fatal("expected Connected after SetClient")
	}

	ch2 := make(chan []byte, 1)
	_ = r.SetClient(ch2)

	select {
	case <-kick1:
	default:
		t.Fatal("first client's kick channel was not closed on displacement")
	}

	// The displaced channel must not clear the newer client.
	r.ClearClient(ch1)
	if !r.Info().Connected {
		t.Fatal("ClearClient with displaced channel cleared Connected")
	}
	r.ClearClient(ch2)
	if r.Info().Connected {
		t.Fatal("ClearClient with current channel should clear Connected")
	}
}

func TestEmitForwardsAndRetains(t *testing.T) {
	r := newRun("id", nil)
	ch := make(chan []byte, 1)
	r.SetClient(ch)

	buf := []byte("abc")
	r.emit(buf)
	buf[0] = 'X'

	if got := <-ch; string(got) != "abc" {
		t.Fatalf("expected live chunk 'abc', got %q", got)
	}
	// Full channel: chunk is dropped live but kept for replay.
	r.emit([]byte("d"))
	r.emit([]byte("e"))
	if got := string(r.Output()); got != "abcde" {
		t.Fatalf("expected retained 'abcde', got %q", got)
	}
}

func TestOutputTruncation(t *testing.T) {
	buf := &outputBuf{max: 10}
	buf.Write([]byte("hello world"))
	if snap := buf.Snapshot(); string(snap) != "ello world" {
		t.Fatalf("expected 'ello world', got %q", snap)
	}
}

func TestOutputEmpty(t *testing.T) {
	if snap := newOutputBuf().Snapshot(); snap != nil {
		t.Fatalf("expected nil snapshot, got %v", snap)
	}
}

func TestOutputConcurrent(t *testing.T) {
	buf := newOutputBuf()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf.Write([]byte("data"))
			buf.Snapshot()
		}()
	}
	wg.Wait()
	if len(buf.Snapshot()) != 400 {
		t.Fatal("lost writes")
	}
}
