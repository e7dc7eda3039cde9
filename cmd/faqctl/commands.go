package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
	"github.com/yanqian/faq-clustering/internal/domain/search"
	"github.com/yanqian/faq-clustering/internal/infra/corpus"
	"github.com/yanqian/faq-clustering/internal/infra/embedder"
	"github.com/yanqian/faq-clustering/internal/infra/faqrepo"
	"github.com/yanqian/faq-clustering/internal/infra/faqstore"
	"github.com/yanqian/faq-clustering/internal/infra/metrics"
	"github.com/yanqian/faq-clustering/internal/infra/vectorindex"
)

type qaFile struct {
	Items []faq.QAItem `yaml:"items"`
}

type options struct {
	input      string
	tenant     string
	corpusPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "faqctl",
		Short:        "Cluster and search FAQ question sets offline",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.input, "input", "", "YAML file with an items list of question/answer pairs")
	rootCmd.PersistentFlags().StringVar(&opts.tenant, "tenant", "local", "tenant id the items belong to")
	rootCmd.PersistentFlags().StringVar(&opts.corpusPath, "corpus", "", "fallback corpus YAML overriding the embedded one")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(newRecommendCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	return rootCmd
}

func newRecommendCmd(opts *options) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print clustered FAQ recommendations for the input items",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd, opts)
			if err != nil {
				return err
			}
			svc := faq.NewService(faq.DefaultConfig(), env.repo, env.fallback, env.embedder, env.cache, metrics.NewLogSink(env.logger), env.logger)
			res, err := svc.GetRecommendations(cmd.Context(), opts.tenant, refresh)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the result cache")
	return cmd
}

func newSearchCmd(opts *options) *cobra.Command {
	var (
		query      string
		adaptive   bool
		confidence bool
		threshold  float64
		topK       int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a similarity search over the input items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("--query is required")
			}
			if adaptive && confidence {
				return fmt.Errorf("--adaptive and --confidence are mutually exclusive")
			}
			env, err := newEnvironment(cmd, opts)
			if err != nil {
				return err
			}
			svc := search.NewService(search.DefaultConfig(), env.embedder, vectorindex.NewMemoryIndex(), env.logger)
			items, err := env.repo.FetchRecentQA(cmd.Context(), opts.tenant, len(env.items))
			if err != nil {
				return err
			}
			if _, err := svc.IndexItems(cmd.Context(), opts.tenant, items); err != nil {
				return err
			}

			ctx := cmd.Context()
			switch {
			case adaptive:
				return writeJSON(cmd.OutOrStdout(), svc.SearchAdaptive(ctx, query, search.AdaptiveParams{TenantID: opts.tenant, TopK: topK}))
			case confidence:
				return writeJSON(cmd.OutOrStdout(), svc.SearchWithConfidenceLevels(ctx, query, search.StatisticsParams{TenantID: opts.tenant}))
			default:
				return writeJSON(cmd.OutOrStdout(), svc.Search(ctx, query, search.SearchParams{TenantID: opts.tenant, Threshold: threshold, TopK: topK}))
			}
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "query text")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "relax the threshold until enough hits are found")
	cmd.Flags().BoolVar(&confidence, "confidence", false, "bucket hits by distribution-derived confidence")
	cmd.Flags().Float64Var(&threshold, "threshold", search.DefaultConfig().Threshold, "minimum similarity for plain searches")
	cmd.Flags().IntVar(&topK, "top-k", search.DefaultConfig().TopK, "maximum number of index hits")
	return cmd
}

type environment struct {
	items    []faq.QAItem
	repo     *faqrepo.MemoryRepository
	fallback faq.FallbackCorpus
	embedder faq.Embedder
	cache    *faqstore.MemoryStore
	logger   *slog.Logger
}

func newEnvironment(cmd *cobra.Command, opts *options) (*environment, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var items []faq.QAItem
	if opts.input != "" {
		loaded, err := loadQAFile(opts.input)
		if err != nil {
			return nil, err
		}
		items = loaded
	}
	repo := faqrepo.NewMemoryRepository()
	if len(items) > 0 {
		if err := repo.SaveQA(cmd.Context(), opts.tenant, items); err != nil {
			return nil, err
		}
	}

	fallback, err := corpus.Default()
	if opts.corpusPath != "" {
		fallback, err = corpus.Load(opts.corpusPath)
	}
	if err != nil {
		return nil, err
	}

	cache, err := faqstore.NewMemoryStore(16)
	if err != nil {
		return nil, err
	}
	return &environment{
		items:    items,
		repo:     repo,
		fallback: fallback,
		embedder: selectEmbedder(logger),
		cache:    cache,
		logger:   logger,
	}, nil
}

// selectEmbedder uses the OpenAI-compatible API when LLM_API_KEY is set.
func selectEmbedder(logger *slog.Logger) faq.Embedder {
	key := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if key == "" {
		return embedder.NewDeterministicEmbedder(0)
	}
	return embedder.NewOpenAIEmbedder(embedder.OpenAIConfig{
		APIKey:  key,
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Model:   os.Getenv("LLM_EMBEDDING_MODEL"),
	}, logger)
}

func loadQAFile(path string) ([]faq.QAItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var file qaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	out := make([]faq.QAItem, 0, len(file.Items))
	for _, item := range file.Items {
		if strings.TrimSpace(item.Question) == "" {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
