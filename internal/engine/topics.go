package engine

import (
	"strings"
)

// relatedTopics maps a query word to follow-up topics worth researching.
// They are offered to the user as suggestions and play no part in ranking.
var relatedTopics = map[string][]string{
	"border": {
		"China Myanmar border crossings",
		"Thai Myanmar border situation",
		"India Bangladesh Myanmar refugee crisis",
		"border trade routes",
		"cross-border conflict",
	},
	"people": {
		"list of all Myanmar ethnic groups",
		"Bamar Rohingya Kachin Shan Karenni Karen Chin Mon Rakhine demographic data",
		"ethnic armed organizations (EAOs)",
	},
	"refugee": {
		"Myanmar refugee situation report UNHCR",
		"Thailand camps IDP displacement figures",
		"Bangladesh Rohingya repatriation status",
		"internally displaced persons (IDP)",
	},
	"election": {
		"Myanmar 1990 2015 2020 election results",
		"NLD party legal status (banned by SAC 2023)",
		"military coup February 2021",
	},
}

// relatedOrder fixes the output order across keywords.
var relatedOrder = []string{"border", "people", "refugee", "election"}

// RelatedTopics returns suggestions for every keyword whose word appears
// in the query, ignoring case. "refugees" counts as "refugee".
func RelatedTopics(query string) []string {
	words := make(map[string]bool)
	for _, t := range tokenPattern.FindAllString(strings.ToLower(query), -1) {
		words[t] = true
		words[strings.TrimSuffix(t, "s")] = true
	}
	if words["ethnic"] {
		words["people"] = true
	}

	var out []string
	for _, k := range relatedOrder {
		if words[k] {
			out = append(out, relatedTopics[k]...)
		}
	}
	return out
}
