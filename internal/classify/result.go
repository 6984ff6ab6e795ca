package classify

import (
	"fmt"
	"sort"
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

// Structured holds exactly one entry per category, sorted by percentage
// descending; ties keep the model's order.
type Structured struct {
	Info
	Entries []Entry
	Summary string
}

// Degraded is a reply that did not match the schema. Summary is the raw
// reply, or a canned message when the reply was blank.
type Degraded struct {
	Info
	Summary string
}

// Failed means the model call itself did not succeed.
type Failed struct {
	Info
	Diagnostic string
}

func (r Structured) info() Info { return r.Info }
func (r Degraded) info() Info   { return r.Info }
func (r Failed) info() Info     { return r.Info }

// FallbackCategory labels the single synthetic entry of degraded and
// failed results.
const FallbackCategory = Worldview

const emptyReplyMessage = "The classification service returned an empty reply, so no breakdown can be shown right now. Please try again."

// FailureMessage is the user-facing text for a failed request.
func FailureMessage(diagnostic string) string {
	return fmt.Sprintf("Sorry, viewpoint classification failed: %s. Please try again later.", diagnostic)
}

// SortEntries orders entries by percentage descending, keeping the input
// order among equal percentages. It returns a new slice.
func SortEntries(in []Entry) []Entry {
	out := append([]Entry(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percentage > out[j].Percentage })
	return out
}

func fromOutcome(o pipeline.Outcome[Payload]) Result {
	info := Info{Model: o.Model, Timestamp: o.At, RequestID: o.RequestID}
	switch o.Kind {
	case pipeline.Structured:
		return Structured{
			Info:    info,
			Entries: SortEntries(o.Value.Classifications),
			Summary: o.Value.Summary,
		}
	case pipeline.Degraded:
		summary := o.Raw
		if strings.TrimSpace(summary) == "" {
			summary = emptyReplyMessage
		}
		return Degraded{Info: info, Summary: summary}
	default:
		diag := o.Diagnostic
		if strings.TrimSpace(diag) == "" {
			diag = "unknown error"
		}
		return Failed{Info: info, Diagnostic: diag}
	}
}
