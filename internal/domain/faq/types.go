package faq

import (
	"time"
)

// DataSource tags where a recommendation corpus came from.
type DataSource string

const (
	// DataSourceDatabase means the tenant's own stored Q&A pairs were clustered.
	DataSourceDatabase DataSource = "database"
	// DataSourceFallback means the curated category corpus was clustered.
	DataSourceFallback DataSource = "fallback"
	// DataSourceErrorFallback marks degraded output built after a failure.
	DataSourceErrorFallback DataSource = "error_fallback"
)

// QAItem is a single question/answer pair owned by a tenant.
type QAItem struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	TenantID string `json:"tenantId" yaml:"tenantId"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer,omitempty" yaml:"answer,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// QAPair is the question/answer view rendered to clients.
type QAPair struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// ClusterSummary describes one realized cluster of the corpus.
type ClusterSummary struct {
	ClusterID              int      `json:"clusterId"`
	RepresentativeQuestion string   `json:"representativeQuestion"`
	RepresentativeAnswer   string   `json:"representativeAnswer"`
	RepresentativeIndex    int      `json:"representativeIndex"`
	MemberCount            int      `json:"memberCount"`
	AvgIntraSimilarity     float64  `json:"avgIntraSimilarity"`
	CentroidDistance       float64  `json:"centroidDistance"`
	Keywords               []string `json:"keywords"`
	Members                []int    `json:"-"`
}

// RecommendationItem is one FAQ entry of the recommendation surface.
type RecommendationItem struct {
	ClusterTitle     string     `json:"clusterTitle"`
	RepresentativeQA QAPair     `json:"representativeQa"`
	SampleQA         []QAPair   `json:"sampleQa"`
	QuestionCount    int        `json:"questionCount"`
	ConfidenceScore  float64    `json:"confidenceScore"`
	Keywords         []string   `json:"keywords"`
	Categories       []string   `json:"categories,omitempty"`
	DataSource       DataSource `json:"dataSource"`
}

// RecommendationResult is returned by GetRecommendations.
type RecommendationResult struct {
	TenantID       string               `json:"tenantId"`
	Items          []RecommendationItem `json:"items"`
	DataSource     DataSource           `json:"dataSource"`
	ClusterCount   int                  `json:"clusterCount"`
	TotalQuestions int                  `json:"totalQuestions"`
	Silhouette     float64              `json:"silhouette"`
	Degraded       bool                 `json:"degraded"`
	ErrorKind      string               `json:"errorKind,omitempty"`
	Cached         bool                 `json:"cached"`
	GeneratedAt    time.Time            `json:"generatedAt"`
	DurationMs     int64                `json:"durationMs"`
}

const (
	maxSampleQA = 3
	maxKeywords = 5
)

// newRecommendationItem renders a summary, capping samples and keywords.
func newRecommendationItem(summary ClusterSummary, items []QAItem, source DataSource) RecommendationItem {
	keywords := summary.Keywords
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	item := RecommendationItem{
		ClusterTitle: ClusterTitle(keywords, summary.ClusterID),
		RepresentativeQA: QAPair{
			Question: summary.RepresentativeQuestion,
			Answer:   summary.RepresentativeAnswer,
		},
		SampleQA:        make([]QAPair, 0, maxSampleQA),
		QuestionCount:   summary.MemberCount,
		ConfidenceScore: summary.AvgIntraSimilarity,
		Keywords:        keywords,
		DataSource:      source,
	}
	seen := make(map[string]bool)
	for _, idx := range summary.Members {
		member := items[idx]
		if member.Category != "" && !seen[member.Category] {
			seen[member.Category] = true
			item.Categories = append(item.Categories, member.Category)
		}
		if idx == summary.RepresentativeIndex || len(item.SampleQA) == maxSampleQA {
			continue
		}
		item.SampleQA = append(item.SampleQA, QAPair{Question: member.Question, Answer: member.Answer})
	}
	return item
}
