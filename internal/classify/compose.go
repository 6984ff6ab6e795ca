package classify

import (
	"sync"

	"compass/internal/prompt"
)

const purpose = `Read the user's passage and estimate how much of it expresses each of three ` +
	`aspects of a personal viewpoint: WORLDVIEW (how the world works), LIFE_PHILOSOPHY ` +
	`(how one should live) and VALUES (what matters most).`

var rules = []string{
	"Classify into exactly these three categories, each exactly once.",
	"Percentages are integers from 0 to 100 and should add up to about 100.",
	"Quote or paraphrase the passage in each explanation.",
}

var example = Payload{
	Classifications: []Entry{
		{Category: Values, Percentage: 50, Explanation: "..."},
		{Category: Worldview, Percentage: 30, Explanation: "..."},
		{Category: LifePhilosophy, Percentage: 20, Explanation: "..."},
	},
	Summary: "...",
}

// Schema is derived once from Payload and shared by every request.
var Schema = sync.OnceValue(func() prompt.Schema {
	return prompt.MustSchema(Payload{}, example)
})

// Compose renders the classification prompt. It is deterministic.
func Compose(text string) (string, error) {
	return prompt.Render(prompt.Spec{
		Purpose:  purpose,
		Inputs:   []prompt.Section{{Title: "TEXT", Body: prompt.Value(text)}},
		Rules:    rules,
		Language: "Write explanations and the summary in the language of the passage.",
		Schema:   Schema(),
	})
}
