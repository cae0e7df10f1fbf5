package dependency

import "time"

// EvaluationEvent describes a single predicate call.
type EvaluationEvent struct {
	Rule     string
	Watch    string
	Field    string
	Pass     int
	Matched  bool
	Duration time.Duration
	Err      error
}

// EvaluationLogger records evaluation events.
type EvaluationLogger interface {
	LogEvaluation(EvaluationEvent)
}

// LoggerFunc adapts a function to EvaluationLogger.
type LoggerFunc func(EvaluationEvent)

// LogEvaluation implements EvaluationLogger.
func (f LoggerFunc) LogEvaluation(event EvaluationEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvaluation(EvaluationEvent) {}
