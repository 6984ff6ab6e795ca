package advice

import (
	"fmt"
	"strings"
	"time"

	"compass/internal/pipeline"
)

// Info is the metadata every result carries.
type Info struct {
	Model     pipeline.ModelUsed
	Timestamp time.Time
	RequestID string
}

// Result is one of Structured, Degraded or Failed.
type Result interface {
	info() Info
}

// Structured is a reply that matched the schema.
type Structured struct {
	Info
	Analysis    []string
	Actions     []string
	FullContent string
}

// Degraded is a reply that did not match the schema. FullContent is the raw
// reply, or a canned message when the reply was blank.
type Degraded struct {
	Info
	FullContent string
}

// Failed means the model call itself did not succeed.
type Failed struct {
	Info
	Diagnostic string
}

func (r Structured) info() Info { return r.Info }
func (r Degraded) info() Info   { return r.Info }
func (r Failed) info() Info     { return r.Info }

const emptyReplyMessage = "The advice service returned an empty reply, so no advice can be shown right now. Please try again."

// FailureMessage is the user-facing text for a failed request.
func FailureMessage(diagnostic string) string {
	return fmt.Sprintf("Sorry, advice generation failed: %s. Please try again later.", diagnostic)
}

func fromOutcome(o pipeline.Outcome[Payload]) Result {
	info := Info{Model: o.Model, Timestamp: o.At, RequestID: o.RequestID}
	switch o.Kind {
	case pipeline.Structured:
		return Structured{
			Info:        info,
			Analysis:    o.Value.Analysis.Points,
			Actions:     o.Value.Actions.Points,
			FullContent: o.Value.FullContent,
		}
	case pipeline.Degraded:
		content := o.Raw
		if strings.TrimSpace(content) == "" {
			content = emptyReplyMessage
		}
		return Degraded{Info: info, FullContent: content}
	default:
		diag := o.Diagnostic
		if strings.TrimSpace(diag) == "" {
			diag = "unknown error"
		}
		return Failed{Info: info, Diagnostic: diag}
	}
}
