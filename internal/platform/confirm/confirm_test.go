package confirm

import (
	"context"
	"errors"
	"testing"
)

type fixedAsker struct {
	answer bool
	err    error
	asked  []Prompt
}

func (a *fixedAsker) Ask(_ context.Context, p Prompt) (bool, error) {
	a.asked = append(a.asked, p)
	return a.answer, a.err
}

func TestGate_ConfirmRunsOnce(t *testing.T) {
	g := NewGate()
	runs := 0
	g.Request("Eliminar", "¿Eliminar producto?", func(context.Context) error {
		runs++
		return nil
	})

	p, ok := g.Pending()
	if !ok || p.Title != "Eliminar" {
		t.Fatalf("expected pending prompt, got %+v %v", p, ok)
	}
	if err := g.Confirm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Confirm(context.Background()); !errors.Is(err, ErrNothingPending) {
		t.Errorf("expected ErrNothingPending on second confirm, got %v", err)
	}
	if runs != 1 {
		t.Errorf("expected one run, got %d", runs)
	}
	if _, ok := g.Pending(); ok {
		t.Error("expected gate to be idle")
	}
}

func TestGate_CancelHasNoSideEffect(t *testing.T) {
	g := NewGate()
	ran := false
	g.Request("t", "m", func(context.Context) error { ran = true; return nil })
	g.Cancel()
	if ran {
		t.Error("cancel must not run the action")
	}
	if _, ok := g.Pending(); ok {
		t.Error("expected idle after cancel")
	}
}

func TestGate_SecondRequestOverwrites(t *testing.T) {
	g := NewGate()
	var ran []string
	g.Request("first", "", func(context.Context) error { ran = append(ran, "first"); return nil })
	g.Request("second", "", func(context.Context) error { ran = append(ran, "second"); return nil })

	g.Confirm(context.Background())
	if len(ran) != 1 || ran[0] != "second" {
		t.Errorf("expected only the second action, got %v", ran)
	}
}

func TestGate_ConfirmPropagatesActionError(t *testing.T) {
	g := NewGate()
	boom := errors.New("boom")
	g.Request("t", "m", func(context.Context) error { return boom })
	if err := g.Confirm(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if _, ok := g.Pending(); ok {
		t.Error("gate must return to idle even when the action fails")
	}
}

func TestGate_Resolve(t *testing.T) {
	g := NewGate()
	ran := 0
	action := func(context.Context) error { ran++; return nil }

	g.Request("t", "m", action)
	did, err := g.Resolve(context.Background(), &fixedAsker{answer: false})
	if err != nil || did || ran != 0 {
		t.Fatalf("expected decline to skip the action: did=%v err=%v ran=%d", did, err, ran)
	}

	g.Request("t", "m", action)
	asker := &fixedAsker{answer: true}
	did, err = g.Resolve(context.Background(), asker)
	if err != nil || !did || ran != 1 {
		t.Fatalf("expected accept to run the action: did=%v err=%v ran=%d", did, err, ran)
	}
	if len(asker.asked) != 1 || asker.asked[0].Message != "m" {
		t.Errorf("unexpected prompts %v", asker.asked)
	}

	g.Request("t", "m", action)
	askErr := errors.New("stdin closed")
	if _, err := g.Resolve(context.Background(), &fixedAsker{err: askErr}); !errors.Is(err, askErr) {
		t.Errorf("expected ask error, got %v", err)
	}
	if _, ok := g.Pending(); ok {
		t.Error("expected a failed ask to cancel")
	}

	if _, err := g.Resolve(context.Background(), asker); !errors.Is(err, ErrNothingPending) {
		t.Errorf("expected ErrNothingPending, got %v", err)
	}
}
