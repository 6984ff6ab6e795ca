package classify

import (
	"strings"

	"compass/internal/structured"
)

// Category is one of the three fixed viewpoint categories.
type Category string

const (
	Worldview      Category = "WORLDVIEW"
	LifePhilosophy Category = "LIFE_PHILOSOPHY"
	Values         Category = "VALUES"
)

// Categories lists every category in canonical order.
var Categories = []Category{Worldview, LifePhilosophy, Values}

func (c Category) Valid() bool {
	switch c {
	case Worldview, LifePhilosophy, Values:
		return true
	}
	return false
}

// Entry weights one category.
type Entry struct {
	Category    Category `json:"category" prompt_type:"one of WORLDVIEW|LIFE_PHILOSOPHY|VALUES"`
	Percentage  int      `json:"percentage" prompt_type:"integer 0-100"`
	Explanation string   `json:"explanation" prompt_desc:"Why the text leans this way, one or two sentences."`
}

// Payload is the reply the model must produce.
type Payload struct {
	Classifications []Entry `json:"classifications" prompt_len:"3" prompt_desc:"One entry per category, each category exactly once."`
	Summary         string  `json:"summary" prompt_desc:"Overall reading of the text in a few sentences."`
}

func (p *Payload) Validate() error {
	if len(p.Classifications) != len(Categories) {
		return structured.Invalid("classifications: want %d, got %d", len(Categories), len(p.Classifications))
	}
	seen := make(map[Category]bool, len(Categories))
	for i, e := range p.Classifications {
		if !e.Category.Valid() {
			return structured.Invalid("classifications[%d]: unknown category %q", i, e.Category)
		}
		if seen[e.Category] {
			return structured.Invalid("classifications[%d]: duplicate category %s", i, e.Category)
		}
		seen[e.Category] = true
		if e.Percentage < 0 || e.Percentage > 100 {
			return structured.Invalid("classifications[%d]: percentage %d outside 0..100", i, e.Percentage)
		}
		if strings.TrimSpace(e.Explanation) == "" {
			return structured.Invalid("classifications[%d]: explanation is blank", i)
		}
	}
	if strings.TrimSpace(p.Summary) == "" {
		return structured.Invalid("summary is blank")
	}
	return nil
}
