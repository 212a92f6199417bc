// Package tokens estimates token counts using tiktoken-go.
// Estimates are advisory (previews, unreported-usage labels); they never
// feed cost computation.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator counts tokens with cl100k_base encoding.
type Estimator struct {
	enc  *tiktoken.Tiktoken
	once sync.Once
	err  error
}

var defaultEstimator = &Estimator{}

// Estimate returns the approximate token count of text.
func Estimate(text string) int {
	return defaultEstimator.Estimate(text)
}

// EstimatePrompt returns the approximate token count of a prompt pair.
func EstimatePrompt(systemPrompt, userPrompt string) int {
	return Estimate(systemPrompt) + Estimate(userPrompt)
}

// Estimate returns the approximate token count of text.
func (e *Estimator) Estimate(text string) int {
	e.init()
	if e.err != nil || e.enc == nil {
		// Fallback: rough estimate (4 chars per token)
		return len(text) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}

func (e *Estimator) init() {
	e.once.Do(func() {
		e.enc, e.err = tiktoken.GetEncoding("cl100k_base")
	})
}
