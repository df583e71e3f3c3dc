package quality

import (
	"context"
	"sync"
)

// Task is a single in-flight analysis. It completes exactly once, with
// either a Report or an error.
type Task struct {
	done chan struct{}

	mu        sync.Mutex
	finished  bool
	report    Report
	err       error
	onSuccess []func(Report)
	onFailure []func(error)
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Done is closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Then registers callbacks. Exactly one of them fires, once. Either may
// be nil. Callbacks registered after completion fire immediately.
func (t *Task) Then(onSuccess func(Report), onFailure func(error)) {
	t.mu.Lock()
	if !t.finished {
		if onSuccess != nil {
			t.onSuccess = append(t.onSuccess, onSuccess)
		}
		if onFailure != nil {
			t.onFailure = append(t.onFailure, onFailure)
		}
		t.mu.Unlock()
		return
	}
	report, err := t.report, t.err
	t.mu.Unlock()

	if err != nil {
		if onFailure != nil {
			onFailure(err)
		}
		return
	}
	if onSuccess != nil {
		onSuccess(report)
	}
}

// Report waits for the task. If ctx ends first it returns ctx.Err(); the
// task itself keeps running.
func (t *Task) Report(ctx context.Context) (Report, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.report, t.err
}

// Wait is Report without diagnostics.
func (t *Task) Wait(ctx context.Context) (QualityResult, error) {
	rep, err := t.Report(ctx)
	if err != nil {
		return QualityResult{}, err
	}
	return rep.Result, nil
}

func (t *Task) complete(report Report, err error) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.report, t.err = report, err
	onSuccess, onFailure := t.onSuccess, t.onFailure
	t.onSuccess, t.onFailure = nil, nil
	t.mu.Unlock()
	close(t.done)

	if err != nil {
		for _, f := range onFailure {
			f(err)
		}
		return
	}
	for _, f := range onSuccess {
		f(report)
	}
}
