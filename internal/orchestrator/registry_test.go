package orchestrator

import (
	"context"
	"testing"

	"github.com/MD-Studio/studiobuild/internal/errors"
)

func noop(context.Context) error { return nil }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("clean", noop); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := r.Register("clean", noop)
	var dup *errors.DuplicateTaskError
	if !errors.As(err, &dup) {
		t.Fatalf("second Register = %v, want DuplicateTaskError", err)
	}
	if dup.Task != "clean" {
		t.Errorf("dup.Task = %q, want clean", dup.Task)
	}

	if err := r.Register("", noop); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Register(\"\") = %v, want validation error", err)
	}
	if err := r.Register("nil-action", nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Register(nil) = %v, want validation error", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("inject", noop)

	if _, err := r.Lookup("inject"); err != nil {
		t.Errorf("Lookup(inject) = %v", err)
	}

	_, err := r.Lookup("watch")
	if !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("Lookup(watch) = %v, want ErrTaskNotFound", err)
	}
	if r.Has("watch") {
		t.Error("Has(watch) = true, want false")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"watch", "clean", "inject"} {
		_ = r.Register(n, noop)
	}

	got := r.Names()
	want := []string{"clean", "inject", "watch"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_Validate(t *testing.T) {
	o := New(nil)
	_ = o.Register("clean", noop)
	_ = o.Register("inject", noop)
	_ = o.RegisterComposite("compile", Sequence{Single("clean"), Group("copy:dist", "ts:dist"), Single("inject")})
	_ = o.RegisterComposite("serve", Sequence{Single("compile"), Single("watch")})

	r := o.Registry()

	if err := r.Validate(Sequence{Single("clean"), Single("inject")}); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}

	err := r.Validate(Sequence{Single("serve")})
	if err == nil {
		t.Fatal("Validate(serve) = nil, want missing tasks")
	}

	missing := map[string]string{}
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var u *errors.UnregisteredTaskError
		if errors.As(e, &u) {
			missing[u.Task] = u.Sequence
		}
	}
	want := map[string]string{"copy:dist": "compile", "ts:dist": "compile", "watch": "serve"}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for task, seq := range want {
		if missing[task] != seq {
			t.Errorf("missing[%s] = %q, want %q", task, missing[task], seq)
		}
	}
}

func TestRegistry_CompositeIsCopied(t *testing.T) {
	o := New(nil)
	seq := Sequence{Single("a")}
	_ = o.RegisterComposite("c", seq)
	seq[0] = Single("mutated")

	got, ok := o.Registry().Composite("c")
	if !ok || got[0].String() != "a" {
		t.Errorf("Composite(c) = %v, %v", got, ok)
	}
	if _, ok := o.Registry().Composite("missing"); ok {
		t.Error("Composite(missing) should report false")
	}
}
