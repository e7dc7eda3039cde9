package corpus

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

//go:embed fallback.yaml
var embedded []byte

// Default returns the fallback corpus bundled with the binary.
func Default() (faq.FallbackCorpus, error) {
	return Parse(embedded)
}

// Load reads the corpus from path, or the bundled corpus when path is empty.
func Load(path string) (faq.FallbackCorpus, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return faq.FallbackCorpus{}, fmt.Errorf("read fallback corpus: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a corpus document.
func Parse(raw []byte) (faq.FallbackCorpus, error) {
	var corpus faq.FallbackCorpus
	if err := yaml.Unmarshal(raw, &corpus); err != nil {
		return faq.FallbackCorpus{}, fmt.Errorf("decode fallback corpus: %w", err)
	}
	seen := make(map[string]bool, len(corpus.Categories))
	for i, cat := range corpus.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return faq.FallbackCorpus{}, fmt.Errorf("fallback category %d has no name", i)
		}
		if seen[name] {
			return faq.FallbackCorpus{}, fmt.Errorf("duplicate fallback category %q", name)
		}
		seen[name] = true
		corpus.Categories[i].Name = name
		for j, item := range cat.Items {
			if strings.TrimSpace(item.Question) == "" {
				return faq.FallbackCorpus{}, fmt.Errorf("fallback category %q item %d has an empty question", name, j)
			}
		}
	}
	return corpus, nil
}
