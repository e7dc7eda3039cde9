package faq

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const minKeywordRunes = 4

// ExtractKeywords returns up to five distinct lowercase tokens longer than
// three runes, in order of appearance. Length is measured on the raw token,
// before trailing punctuation is trimmed; tokens differing only in case count
// once.
func ExtractKeywords(normalized string) []string {
	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]bool)
	for _, token := range strings.Fields(normalized) {
		if utf8.RuneCountInString(token) < minKeywordRunes {
			continue
		}
		token = strings.ToLower(strings.Trim(token, ".?!"))
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// ClusterTitle joins the first two keywords in title case, or names the
// cluster by number when none survived.
func ClusterTitle(keywords []string, clusterID int) string {
	if len(keywords) == 0 {
		return fmt.Sprintf("Category %d", clusterID+1)
	}
	top := keywords
	if len(top) > 2 {
		top = top[:2]
	}
	return cases.Title(language.Und).String(strings.Join(top, " & "))
}
