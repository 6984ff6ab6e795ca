package advice

import (
	"strings"

	"compass/internal/structured"
)

// PointCount is the exact number of analysis and action points.
const PointCount = 3

// Points is a fixed-size list of short statements.
type Points struct {
	Points []string `json:"points" prompt_len:"3" prompt_desc:"Short, concrete statements, one sentence each."`
}

// Payload is the reply the model must produce.
type Payload struct {
	Analysis    Points `json:"analysis" prompt_desc:"How the user's viewpoint bears on the scenario."`
	Actions     Points `json:"actions" prompt_desc:"Steps the user can take next."`
	FullContent string `json:"fullContent" prompt_desc:"The complete advice as flowing prose."`
}

func (p *Payload) Validate() error {
	if err := validatePoints("analysis", p.Analysis.Points); err != nil {
		return err
	}
	if err := validatePoints("actions", p.Actions.Points); err != nil {
		return err
	}
	if strings.TrimSpace(p.FullContent) == "" {
		return structured.Invalid("fullContent is blank")
	}
	return nil
}

func validatePoints(name string, pts []string) error {
	if len(pts) != PointCount {
		return structured.Invalid("%s.points: want %d, got %d", name, PointCount, len(pts))
	}
	for i, pt := range pts {
		if strings.TrimSpace(pt) == "" {
			return structured.Invalid("%s.points[%d] is blank", name, i)
		}
	}
	return nil
}
