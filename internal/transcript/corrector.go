package transcript

import (
	"context"
	"strings"
)

// PipelineOption is a functional option for configuring a [CorrectionPipeline].
type PipelineOption func(*CorrectionPipeline)

// WithPhoneticMatcher attaches a [PhoneticMatcher] as the pipeline's
// correction stage. When nil (the default), Correct is a no-op.
func WithPhoneticMatcher(m PhoneticMatcher) PipelineOption {
	return func(p *CorrectionPipeline) {
		p.phonetic = m
	}
}

// CorrectionPipeline is the phonetic-matching implementation of [Pipeline].
// Safe for concurrent use.
type CorrectionPipeline struct {
	phonetic PhoneticMatcher
}

var _ Pipeline = (*CorrectionPipeline)(nil)

// NewPipeline constructs a [CorrectionPipeline] with the supplied options.
func NewPipeline(opts ...PipelineOption) *CorrectionPipeline {
	p := &CorrectionPipeline{}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Correct tokenises text and, for each position, tries n-gram windows from
// the longest known entity name down to a single word, so multi-word
// provider names ("Riverside Family Clinic") take precedence over a
// single-word partial match.
func (p *CorrectionPipeline) Correct(_ context.Context, text string, entities []string) (*CorrectedTranscript, error) {
	result := &CorrectedTranscript{Original: text, Corrected: text, Corrections: []Correction{}}

	if p.phonetic == nil || len(entities) == 0 {
		return result, nil
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return result, nil
	}

	maxEntityWords := maxWordCount(entities)
	var output []string

	i := 0
	for i < len(tokens) {
		maxN := maxEntityWords
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		matched := false
		for n := maxN; n >= 1; n-- {
			window := strings.Join(tokens[i:i+n], " ")
			entity, conf, ok := p.phonetic.Match(window, entities)
			if !ok {
				continue
			}

			output = append(output, strings.Fields(entity)...)
			result.Corrections = append(result.Corrections, Correction{
				Original:   window,
				Corrected:  entity,
				Confidence: conf,
			})
			i += n
			matched = true
			break
		}

		if !matched {
			output = append(output, tokens[i])
			i++
		}
	}

	if len(result.Corrections) > 0 {
		result.Corrected = strings.Join(output, " ")
	}
	return result, nil
}

// maxWordCount returns the maximum number of whitespace-separated words in
// any entity string. Returns 1 when entities is empty.
func maxWordCount(entities []string) int {
	max := 1
	for _, e := range entities {
		if n := len(strings.Fields(e)); n > max {
			max = n
		}
	}
	return max
}
