package vector

import (
	"math"
	"testing"
)

func seqWithSteps(n int) *Sequence {
	q := NewSequence()
	q.Steps = nil
	for i := 0; i < n; i++ {
		q.AppendStep(DefaultStep())
	}
	return q
}

func TestForwardModeWrapsToLoopStart(t *testing.T) {
	q := seqWithSteps(4)
	idx, dir := 0, 1
	for i := 0; i < 4; i++ {
		idx, dir = q.advance(idx, dir)
	}
	if idx != 0 {
		t.Fatalf("after 4 advances index = %d, want 0", idx)
	}
}

func TestReverseModeWrapsToLoopEnd(t *testing.T) {
	q := seqWithSteps(4)
	q.Loop = LoopReverse
	idx, dir := 0, 1
	idx, dir = q.advance(idx, dir)
	if idx != 3 {
		t.Fatalf("reverse from 0 = %d, want 3", idx)
	}
	idx, _ = q.advance(idx, dir)
	if idx != 2 {
		t.Fatalf("reverse from 3 = %d, want 2", idx)
	}
}

func TestPingPongStaysInWindowAndFlips(t *testing.T) {
	q := seqWithSteps(6)
	q.Loop = LoopPingPong
	q.LoopStart = 1
	q.LoopEnd = 4
	idx, dir := 1, 1
	flips := 0
	prevDir := dir
	for i := 0; i < 50; i++ {
		idx, dir = q.advance(idx, dir)
		if idx < 1 || idx > 4 {
			t.Fatalf("ping-pong index %d escaped window [1,4]", idx)
		}
		if dir != prevDir {
			flips++
			if idx != 1 && idx != 4 {
				t.Fatalf("direction flipped away from a boundary, at index %d", idx)
			}
			prevDir = dir
		}
	}
	if flips < 2 {
		t.Fatalf("expected repeated direction flips, got %d", flips)
	}
}

func TestRandomModeStaysInWindow(t *testing.T) {
	q := seqWithSteps(8)
	q.Loop = LoopRandom
	q.LoopStart = 2
	q.LoopEnd = 5
	idx, dir := 2, 1
	for i := 0; i < 200; i++ {
		idx, dir = q.advance(idx, dir)
		if idx < 2 || idx > 5 {
			t.Fatalf("random index %d escaped window [2,5]", idx)
		}
	}
}

func TestOneShotSaturatesAtLastStep(t *testing.T) {
	q := seqWithSteps(3)
	q.Loop = LoopOneShot
	idx, dir := 0, 1
	prev := idx
	for i := 0; i < 10; i++ {
		idx, dir = q.advance(idx, dir)
		if idx < prev {
			t.Fatalf("one-shot index decreased from %d to %d", prev, idx)
		}
		prev = idx
	}
	if idx != 2 {
		t.Fatalf("one-shot settled at %d, want stepCount-1 = 2", idx)
	}
}

func TestLoopWindowClampsToStepCount(t *testing.T) {
	q := seqWithSteps(4)
	q.LoopStart = 2
	q.LoopEnd = 99
	lo, hi := q.loopBounds()
	if lo != 2 || hi != 3 {
		t.Fatalf("loop bounds = [%d,%d], want [2,3]", lo, hi)
	}
	q.LoopEnd = -1
	if _, hi = q.loopBounds(); hi != 3 {
		t.Fatalf("loopEnd=-1 should resolve to last step, got %d", hi)
	}
	q.LoopStart = 3
	q.LoopEnd = 1
	lo, hi = q.loopBounds()
	if hi < lo {
		t.Fatalf("inverted window not repaired: [%d,%d]", lo, hi)
	}
}

func TestStartStepModulation(t *testing.T) {
	q := seqWithSteps(5)
	q.VelocityMod = 1
	if got := q.startStep(1, 0); got != 4 {
		t.Fatalf("full velocity start step = %d, want 4", got)
	}
	if got := q.startStep(0.5, 0); got != 2 {
		t.Fatalf("half velocity start step = %d, want 2", got)
	}
	q.VelocityMod = 0
	q.ModWheelMod = 1
	if got := q.startStep(1, 1); got != 4 {
		t.Fatalf("full mod wheel start step = %d, want 4", got)
	}
	q.ModWheelMod = 0
	if got := q.startStep(1, 1); got != 0 {
		t.Fatalf("no modulation start step = %d, want 0", got)
	}
}

func TestStepDurationModes(t *testing.T) {
	q := seqWithSteps(1)
	q.Steps[0].Duration = 1
	if got := q.stepDuration(0, 120, 1); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("1 beat at 120 BPM = %v s, want 0.5", got)
	}
	q.DurMode = DurationMillis
	q.Steps[0].Duration = 250
	if got := q.stepDuration(0, 120, 1); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("250 ms = %v s, want 0.25", got)
	}
	q.Steps[0].Duration = 0
	if got := q.stepDuration(0, 120, 1); got != 0 {
		t.Fatalf("zero duration = %v, want 0", got)
	}
}

func TestStepDurationFloorsSpeedModifier(t *testing.T) {
	q := seqWithSteps(1)
	q.Steps[0].Duration = 1
	slow := q.stepDuration(0, 120, 0.01)
	floored := q.stepDuration(0, 120, minSpeedModifier)
	if slow != floored {
		t.Fatalf("speed modifier not floored: %v vs %v", slow, floored)
	}
}
