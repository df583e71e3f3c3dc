package observer

import (
	"context"
	"sync"
	"time"

	"github.com/anime-shed/image-quality-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Quality        int                    `json:"quality,omitempty"`
	Accepted       bool                   `json:"accepted"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when an image was scored
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when no score could be produced
	AnalysisFailed EventType = "analysis_failed"
	// BatchCompleted when every item of a batch has finished
	BatchCompleted EventType = "batch_completed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct{}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver() Observer {
	return &LoggingObserver{}
}

// OnEvent handles analysis events by logging them through the request's
// log entry.
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"source":     event.Source,
	}
	if event.EventType != AnalysisStarted {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.EventType == AnalysisCompleted {
		fields["quality"] = event.Quality
		fields["accepted"] = event.Accepted
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := logger.FromContext(ctx).WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Image analysis started")
	case AnalysisCompleted:
		entry.Info("Image analysis completed")
	case AnalysisFailed:
		entry.Error("Image analysis failed")
	case BatchCompleted:
		entry.Info("Batch analysis completed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a snapshot of MetricsObserver counters.
type Metrics struct {
	TotalAnalyses      int64   `json:"total_analyses"`
	SuccessfulAnalyses int64   `json:"successful_analyses"`
	FailedAnalyses     int64   `json:"failed_analyses"`
	AcceptedImages     int64   `json:"accepted_images"`
	RejectedImages     int64   `json:"rejected_images"`
	Batches            int64   `json:"batches"`
	AvgQuality         float64 `json:"avg_quality"`
	AvgProcessingMs    float64 `json:"avg_processing_ms"`
	TotalProcessingMs  int64   `json:"total_processing_ms"`
}

// MetricsObserver collects metrics from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	accepted            int64
	batches             int64
	qualitySum          int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.qualitySum += int64(event.Quality)
		o.totalProcessingTime += event.ProcessingTime
		if event.Accepted {
			o.accepted++
		}
	case AnalysisFailed:
		o.failedAnalyses++
	case BatchCompleted:
		o.batches++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		TotalAnalyses:      o.totalAnalyses,
		SuccessfulAnalyses: o.successfulAnalyses,
		FailedAnalyses:     o.failedAnalyses,
		AcceptedImages:     o.accepted,
		RejectedImages:     o.successfulAnalyses - o.accepted,
		Batches:            o.batches,
		TotalProcessingMs:  o.totalProcessingTime.Milliseconds(),
	}
	if o.successfulAnalyses > 0 {
		m.AvgQuality = float64(o.qualitySum) / float64(o.successfulAnalyses)
		m.AvgProcessingMs = float64(o.totalProcessingTime.Milliseconds()) / float64(o.successfulAnalyses)
	}
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer in subscription
// order. A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).WithFields(logrus.Fields{
				"observer": obs.GetObserverName(),
				"panic":    r,
			}).Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
