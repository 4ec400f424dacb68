package ports

import "time"

type Recorder interface {
	ConnectAttempt(kind, outcome string)
	TransactionFinished(kind, reason string)
	PhaseDuration(phase string, elapsed time.Duration)
}

type NopRecorder struct{}

func (NopRecorder) ConnectAttempt(string, string) {}

func (NopRecorder) TransactionFinished(string, string) {}

func (NopRecorder) PhaseDuration(string, time.Duration) {}
