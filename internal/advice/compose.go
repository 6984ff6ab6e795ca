package advice

import (
	"sync"

	"compass/internal/profile"
	"compass/internal/prompt"
)

const purpose = `You are a thoughtful personal-growth coach. Using the user's own viewpoint ` +
	`(worldview, life philosophy and values), analyse their current situation and suggest ` +
	`what they could do next. Advice must fit their stated outlook rather than replace it.`

var rules = []string{
	"Ground every point in at least one of the viewpoint fields when it is set.",
	"If a viewpoint field is missing, do not invent it; rely on the scenario instead.",
	"Give exactly 3 analysis points and exactly 3 action points.",
	"Do not give medical, legal or financial directives.",
}

var example = Payload{
	Analysis:    Points{Points: []string{"...", "...", "..."}},
	Actions:     Points{Points: []string{"...", "...", "..."}},
	FullContent: "...",
}

// Schema is derived once from Payload and shared by every request.
var Schema = sync.OnceValue(func() prompt.Schema {
	return prompt.MustSchema(Payload{}, example)
})

// Compose renders the advice prompt. It is deterministic.
func Compose(v profile.Viewpoint, scenario string) (string, error) {
	return prompt.Render(prompt.Spec{
		Purpose: purpose,
		Inputs: []prompt.Section{
			{Title: "PROFILE", Body: prompt.FormatEntries([]prompt.Entry{
				{Key: "worldview", Value: v.Worldview},
				{Key: "lifePhilosophy", Value: v.LifePhilosophy},
				{Key: "values", Value: v.Values},
			})},
			{Title: "SCENARIO", Body: prompt.Value(scenario)},
		},
		Rules:    rules,
		Language: "Reply in the language the scenario is written in.",
		Schema:   Schema(),
	})
}
