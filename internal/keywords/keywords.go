// Package keywords derives hashtag suggestions and brand mentions from
// analyzed content, supplementing the model-driven keyword extraction with a
// cheap local pass.
package keywords

import (
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/rotisserie/eris"
)

// maxHashtags bounds the suggestion list.
const maxHashtags = 10

// nounTags are the Penn Treebank tags counted toward hashtag frequency.
var nounTags = map[string]bool{
	"NN": true, "NNS": true, "NNP": true, "NNPS": true,
}

var stopwords = map[string]bool{
	"analysis": true, "business": true, "company": true, "content": true,
	"insights": true, "keywords": true, "market": true, "things": true,
	"way": true, "time": true, "year": true, "years": true, "people": true,
}

// Extraction is the local keyword pass over one text.
type Extraction struct {
	Hashtags []string `json:"hashtags"`
	Mentions []string `json:"mentions"`
}

// Extract tokenizes the text and returns noun-frequency hashtags plus brand
// mentions. Brands come from named entities in the text intersected with the
// configured watchlist; watchlist names are also matched directly so short
// texts still report known brands.
func Extract(text string, watchlist []string) (Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return Extraction{Hashtags: []string{}, Mentions: []string{}}, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return Extraction{}, eris.Wrap(err, "tokenizing content")
	}

	freq := map[string]int{}
	for _, tok := range doc.Tokens() {
		if !nounTags[tok.Tag] {
			continue
		}
		w := strings.ToLower(strings.Trim(tok.Text, ".,!?;:'\""))
		if len(w) < 4 || stopwords[w] {
			continue
		}
		freq[w]++
	}

	entities := map[string]bool{}
	for _, ent := range doc.Entities() {
		entities[strings.ToLower(ent.Text)] = true
	}

	return Extraction{
		Hashtags: topHashtags(freq),
		Mentions: matchBrands(text, entities, watchlist),
	}, nil
}

func topHashtags(freq map[string]int) []string {
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > maxHashtags {
		words = words[:maxHashtags]
	}
	tags := make([]string, len(words))
	for i, w := range words {
		tags[i] = "#" + w
	}
	return tags
}

func matchBrands(text string, entities map[string]bool, watchlist []string) []string {
	lower := strings.ToLower(text)
	mentions := []string{}
	for _, brand := range watchlist {
		b := strings.ToLower(brand)
		if entities[b] || strings.Contains(lower, b) {
			mentions = append(mentions, brand)
		}
	}
	return mentions
}
