package syspm

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	log []string
}

func (r *recorder) callback(name string, refuse bool) Callback {
	return func(p Phase) Status {
		r.log = append(r.log, fmt.Sprintf("%s:%v", name, p))
		if refuse && p == CheckReady {
			return Fail
		}
		return Success
	}
}

func TestTransition(t *testing.T) {
	rec := &recorder{}
	var chain Chain
	chain.Register(rec.callback("a", false))
	chain.Register(rec.callback("b", false))
	chain.Register(nil)

	if chain.Len() != 2 {
		t.Fatalf("Len = %d, want 2", chain.Len())
	}

	st := chain.Transition(func() { rec.log = append(rec.log, "sleep") })
	if st != Success {
		t.Fatalf("Transition = %v", st)
	}

	want := []string{
		"a:check_ready", "b:check_ready",
		"a:before_transition", "b:before_transition",
		"sleep",
		"b:after_transition", "a:after_transition",
	}
	if diff := cmp.Diff(want, rec.log); diff != "" {
		t.Errorf("call order (-want +got):\n%s", diff)
	}
}

func TestTransitionRefused(t *testing.T) {
	rec := &recorder{}
	var chain Chain
	chain.Register(rec.callback("a", false))
	chain.Register(rec.callback("b", false))
	chain.Register(rec.callback("c", true))
	chain.Register(rec.callback("d", false))

	slept := false
	if st := chain.Transition(func() { slept = true }); st != Fail {
		t.Fatalf("Transition = %v, want fail", st)
	}
	if slept {
		t.Error("entered low power mode after a refusal")
	}

	want := []string{
		"a:check_ready", "b:check_ready", "c:check_ready",
		"b:check_fail", "a:check_fail",
	}
	if diff := cmp.Diff(want, rec.log); diff != "" {
		t.Errorf("call order (-want +got):\n%s", diff)
	}
}

func TestNotify(t *testing.T) {
	rec := &recorder{}
	var chain Chain
	chain.Register(rec.callback("a", false))
	chain.Register(func(Phase) Status { return Fail })
	chain.Register(rec.callback("c", false))

	if st := chain.Notify(AfterTransition); st != Fail {
		t.Errorf("Notify = %v, want fail", st)
	}
	if diff := cmp.Diff([]string{"a:after_transition", "c:after_transition"}, rec.log); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	var empty Chain
	if st := empty.Transition(nil); st != Success {
		t.Errorf("empty chain Transition = %v", st)
	}
}
