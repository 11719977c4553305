package recommend

import (
	"regexp"
	"strings"

	"mediashelf/internal/models"
)

// Title patterns that suggest the collection holds part of a series. These
// are intentionally fuzzy; a title like "Apollo 13" will match the numbered
// pattern, and that false positive is accepted.
var franchisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s+[Pp]art\s+\d+$`),                    // "Title Part 2"
	regexp.MustCompile(`^(.+?)\s+\d+$`),                              // "Title 2"
	regexp.MustCompile(`^(.+?)\s+(?:II|III|IV|V|VI|VII|VIII|IX|X)$`), // "Title II"
	regexp.MustCompile(`^(.+?):\s+.+$`),                              // "Title: Subtitle"
	regexp.MustCompile(`^(.+?)\s+-\s+.+$`),                           // "Title - Subtitle"
}

// Well-known franchises matched by substring against collection titles.
var knownFranchises = []string{
	"Star Wars",
	"Star Trek",
	"James Bond",
	"Harry Potter",
	"Lord of the Rings",
	"Jurassic",
	"Alien",
	"Terminator",
	"Rocky",
	"Batman",
	"Spider-Man",
	"Mission: Impossible",
	"Indiana Jones",
	"Matrix",
	"Fast & Furious",
}

// franchiseKeywords extracts candidate franchise names from collection
// titles, mapping each keyword to the ids of the items that produced it.
func franchiseKeywords(collection []models.CollectionItem) (map[string][]string, []string) {
	keywords := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	var order []string

	add := func(keyword, itemID string) {
		keyword = strings.TrimSpace(keyword)
		if len(keyword) < 3 {
			return
		}
		if _, ok := keywords[keyword]; !ok {
			order = append(order, keyword)
			seen[keyword] = make(map[string]bool)
		}
		// a title can match both a pattern and the known list
		if seen[keyword][itemID] {
			return
		}
		seen[keyword][itemID] = true
		keywords[keyword] = append(keywords[keyword], itemID)
	}

	for _, item := range collection {
		title := strings.TrimSpace(item.Title)

		for _, pattern := range franchisePatterns {
			if match := pattern.FindStringSubmatch(title); match != nil {
				add(match[1], item.ID)
				break
			}
		}
		for _, franchise := range knownFranchises {
			if strings.Contains(strings.ToLower(title), strings.ToLower(franchise)) {
				add(franchise, item.ID)
			}
		}
	}

	return keywords, order
}
