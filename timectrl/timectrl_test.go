package timectrl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poj1738/satellite-communication-simulator/model"
)

func TestPlaybackRunEmitsFrames(t *testing.T) {
	pb, err := NewPlayback(time.Second, 1000)
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}

	var frames []Frame
	pb.AddListener(func(f Frame) { frames = append(frames, f) })

	tl := model.ContactTimeline{true, false, true}
	if err := pb.Run(context.Background(), tl); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.Step != i {
			t.Errorf("frame %d has step %d", i, f.Step)
		}
		if f.Linked != tl[i] {
			t.Errorf("frame %d linked=%v, want %v", i, f.Linked, tl[i])
		}
		if f.Elapsed != time.Duration(i)*time.Second {
			t.Errorf("frame %d elapsed=%v, want %v", i, f.Elapsed, time.Duration(i)*time.Second)
		}
	}

	if got := pb.Current(); got != frames[2] {
		t.Errorf("Current() = %+v, want the final frame", got)
	}
}

func TestPlaybackCancelStopsRun(t *testing.T) {
	pb, err := NewPlayback(time.Second, 1000)
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	tl := make(model.ContactTimeline, 10000)
	if err := pb.Run(ctx, tl); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want context.DeadlineExceeded", err)
	}
	if pb.Current().Step >= len(tl)-1 {
		t.Errorf("playback should have been cut short, reached step %d", pb.Current().Step)
	}
}

func TestPlaybackValidation(t *testing.T) {
	if _, err := NewPlayback(0, 10); !errors.Is(err, ErrBadStep) {
		t.Errorf("zero step: got %v, want ErrBadStep", err)
	}
	if _, err := NewPlayback(time.Second, 0.5); !errors.Is(err, ErrBadSpeed) {
		t.Errorf("sub-real-time speed: got %v, want ErrBadSpeed", err)
	}
}

func TestPlaybackIntervalFloor(t *testing.T) {
	pb, err := NewPlayback(time.Second, 1e9)
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	if got := pb.Interval(); got != minInterval {
		t.Errorf("interval = %v, want the %v floor", got, minInterval)
	}

	pb, err = NewPlayback(time.Minute, 60)
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	if got := pb.Interval(); got != time.Second {
		t.Errorf("interval = %v, want 1s", got)
	}
}

func TestPlaybackEmptyTimeline(t *testing.T) {
	pb, err := NewPlayback(time.Second, 10)
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	if err := pb.Run(context.Background(), nil); err != nil {
		t.Errorf("empty timeline should return immediately, got %v", err)
	}
}
