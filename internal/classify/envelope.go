package classify

import (
	"fmt"
	"time"

	"compass/internal/pipeline"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the wire shape returned to UI callers.
type Envelope struct {
	Classifications []Entry            `json:"classifications"`
	Summary         string             `json:"summary"`
	ModelUsed       pipeline.ModelUsed `json:"modelUsed"`
	Timestamp       time.Time          `json:"timestamp"`
	Status          string             `json:"status"`
	IsStructured    bool               `json:"isStructured"`
	Error           string             `json:"error,omitempty"`
	RequestID       string             `json:"requestId,omitempty"`
}

// ToEnvelope maps a Result variant to the wire envelope.
func ToEnvelope(r Result) Envelope {
	info := r.info()
	env := Envelope{
		ModelUsed: info.Model,
		Timestamp: info.Timestamp,
		RequestID: info.RequestID,
	}
	switch v := r.(type) {
	case Structured:
		env.Classifications = append([]Entry{}, v.Entries...)
		env.Summary = v.Summary
		env.Status = StatusSuccess
		env.IsStructured = true
	case Degraded:
		env.Classifications = synthetic(v.Summary)
		env.Summary = v.Summary
		env.Status = StatusSuccess
	case Failed:
		msg := FailureMessage(v.Diagnostic)
		env.Classifications = synthetic(msg)
		env.Summary = msg
		env.Status = StatusError
		env.Error = v.Diagnostic
	default:
		panic(fmt.Sprintf("classify: unknown result %T", r))
	}
	return env
}

func synthetic(summary string) []Entry {
	return []Entry{{Category: FallbackCategory, Percentage: 100, Explanation: summary}}
}
