package faq

import (
	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
)

// ErrNoFallbackCorpus is returned when recommendations cannot degrade because
// no fallback corpus was configured.
var ErrNoFallbackCorpus = apperrors.Wrap(apperrors.CodeConfig, "no fallback corpus configured", nil)
