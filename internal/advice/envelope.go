package advice

import (
	"fmt"
	"time"

	"compass/internal/pipeline"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PointList is the wire form of Points; Points is never null.
type PointList struct {
	Points []string `json:"points"`
}

// Envelope is the wire shape returned to UI callers.
type Envelope struct {
	Analysis     PointList          `json:"analysis"`
	Actions      PointList          `json:"actions"`
	FullContent  string             `json:"fullContent"`
	ModelUsed    pipeline.ModelUsed `json:"modelUsed"`
	Timestamp    time.Time          `json:"timestamp"`
	Status       string             `json:"status"`
	IsStructured bool               `json:"isStructured"`
	Error        string             `json:"error,omitempty"`
	RequestID    string             `json:"requestId,omitempty"`
}

// ToEnvelope maps a Result variant to the wire envelope.
func ToEnvelope(r Result) Envelope {
	info := r.info()
	env := Envelope{
		Analysis:  PointList{Points: []string{}},
		Actions:   PointList{Points: []string{}},
		ModelUsed: info.Model,
		Timestamp: info.Timestamp,
		RequestID: info.RequestID,
	}
	switch v := r.(type) {
	case Structured:
		env.Analysis.Points = append(env.Analysis.Points, v.Analysis...)
		env.Actions.Points = append(env.Actions.Points, v.Actions...)
		env.FullContent = v.FullContent
		env.Status = StatusSuccess
		env.IsStructured = true
	case Degraded:
		env.FullContent = v.FullContent
		env.Status = StatusSuccess
	case Failed:
		env.FullContent = FailureMessage(v.Diagnostic)
		env.Status = StatusError
		env.Error = v.Diagnostic
	default:
		panic(fmt.Sprintf("advice: unknown result %T", r))
	}
	return env
}
