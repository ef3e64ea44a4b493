// File: suggest.go
// Title: Command Suggestions
// Description: "Did you mean" ranking over visible names and aliases. Edit
//              distance similarity catches typos; subsequence matching
//              catches abbreviations such as "tp" for "teleport".
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package registry

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/utils/stringx"
)

type suggestion struct {
	name       string
	similarity float64
	score      int
}

// Suggest ranks visible command names against the leading words of args
func (r *Registry) Suggest(args []string, channel command.Channel) []string {
	if len(args) == 0 {
		return nil
	}

	best := make(map[string]suggestion)
	for _, d := range r.descriptors {
		if d.Hidden || !d.Channels.Has(channel) {
			continue
		}
		paths := append([][]string{d.Path}, d.AliasPaths...)
		for _, p := range paths {
			name := strings.Join(p, " ")
			input := strings.Join(args[:min(len(p), len(args))], " ")

			s := suggestion{name: name, similarity: stringx.Similarity(input, name)}
			if matches := fuzzy.Find(input, []string{name}); len(matches) > 0 {
				s.score = matches[0].Score
			} else if s.similarity < r.options.SuggestionThreshold {
				continue
			}
			if prev, ok := best[name]; !ok || s.similarity > prev.similarity {
				best[name] = s
			}
		}
	}

	ranked := make([]suggestion, 0, len(best))
	for _, s := range best {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].similarity != ranked[j].similarity {
			return ranked[i].similarity > ranked[j].similarity
		}
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > r.options.SuggestionCount {
		ranked = ranked[:r.options.SuggestionCount]
	}

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.name
	}
	return out
}
