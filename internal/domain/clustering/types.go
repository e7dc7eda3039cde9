package clustering

// Config tunes cluster-count selection and the k-means fit.
type Config struct {
	MaxK     int
	Restarts int
	MaxIter  int
	Seed     int64
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxK:     10,
		Restarts: 10,
		MaxIter:  300,
		Seed:     42,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxK <= 0 {
		c.MaxK = def.MaxK
	}
	if c.Restarts <= 0 {
		c.Restarts = def.Restarts
	}
	if c.MaxIter <= 0 {
		c.MaxIter = def.MaxIter
	}
	return c
}

// Assignment maps an input row to its cluster.
type Assignment struct {
	ItemIndex int `json:"itemIndex"`
	ClusterID int `json:"clusterId"`
}

// Cluster is one non-empty partition with its representative member.
type Cluster struct {
	ID                 int     `json:"clusterId"`
	Members            []int   `json:"members"`
	Representative     int     `json:"representativeIndex"`
	CentroidDistance   float64 `json:"centroidDistance"`
	AvgIntraSimilarity float64 `json:"avgIntraSimilarity"`
}

// Result is the outcome of a clustering run. Degraded results carry the
// single-cluster fallback and the cause in Err; they are never returned as
// failures.
type Result struct {
	K           int          `json:"k"`
	Assignments []Assignment `json:"assignments"`
	Clusters    []Cluster    `json:"clusters"`
	Silhouette  float64      `json:"silhouette"`
	Degraded    bool         `json:"degraded"`
	Err         error        `json:"-"`
}

// MemberCount sums cluster sizes.
func (r Result) MemberCount() int {
	total := 0
	for _, c := range r.Clusters {
		total += len(c.Members)
	}
	return total
}
