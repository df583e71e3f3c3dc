package quality

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestTask_CallbacksFireOnce(t *testing.T) {
	task := newTask()
	var successes, failures atomic.Int32
	task.Then(func(Report) { successes.Add(1) }, func(error) { failures.Add(1) })

	task.complete(Report{Result: QualityResult{Quality: 42}}, nil)
	task.complete(Report{}, errors.New("late failure"))

	if successes.Load() != 1 || failures.Load() != 0 {
		t.Errorf("Expected one success and no failures, got %d and %d", successes.Load(), failures.Load())
	}

	// Registered after completion: fires immediately, once.
	task.Then(func(Report) { successes.Add(1) }, func(error) { failures.Add(1) })
	if successes.Load() != 2 || failures.Load() != 0 {
		t.Errorf("Expected late callback to see success, got %d and %d", successes.Load(), failures.Load())
	}

	result, err := task.Wait(context.Background())
	if err != nil || result.Quality != 42 {
		t.Errorf("Expected quality 42, got %d, %v", result.Quality, err)
	}
}

func TestTask_Failure(t *testing.T) {
	task := newTask()
	want := &DecodeError{Source: "x", Err: errors.New("bad")}
	var got error
	task.Then(nil, func(err error) { got = err })
	task.complete(Report{}, want)

	if got != want {
		t.Errorf("Expected failure callback with %v, got %v", want, got)
	}
	if _, err := task.Wait(context.Background()); err != want {
		t.Errorf("Expected Wait to return %v, got %v", want, err)
	}
	select {
	case <-task.Done():
	default:
		t.Error("Expected Done to be closed")
	}
}
