package quiz

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Generator produces a candidate question for the given prompt context. The
// production implementation (internal/genai) resolves to its own safe
// fallback on any transport or parse failure, so the only failure mode the
// supplier handles here is the call outliving its budget.
type Generator interface {
	GenerateQuestion(ctx context.Context, promptContext string) Question
}

// Supplier produces a fresh, non-duplicate question within a bounded
// wall-clock budget: at most firstBudget + (maxAttempts-1) * retryBudget.
type Supplier struct {
	gen   Generator
	cache Cache

	firstBudget time.Duration // T1
	retryBudget time.Duration // T2 < T1
	maxAttempts int

	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSupplier(gen Generator, cache Cache, firstBudget, retryBudget time.Duration, maxAttempts int) *Supplier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Supplier{
		gen:         gen,
		cache:       cache,
		firstBudget: firstBudget,
		retryBudget: retryBudget,
		maxAttempts: maxAttempts,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns a question for the session's flavor text. It always returns
// within budget: a late or persistently duplicate generator loses the race to
// the topic-indexed fallback pool.
func (s *Supplier) Next(ctx context.Context, flavor string) Question {
	s.mu.Lock()
	topic := Topics[s.rng.Intn(len(Topics))]
	difficulty := Difficulties[s.rng.Intn(len(Difficulties))]
	s.mu.Unlock()

	recent, err := s.cache.Recent(ctx, 6)
	if err != nil {
		log.Printf("quiz: recent lookup failed, prompting without history: %v", err)
		recent = nil
	}

	prompt := fmt.Sprintf(
		"Now: %s\nTopic: %s\nDifficulty: %s\nStory flavor: %s\n"+
			"Avoid repeating or being too similar to any of these recent questions:\n- %s\n",
		s.now().UTC().Format(time.RFC3339), topic, difficulty, flavor,
		strings.Join(recent, "\n- "),
	)

	budget := s.firstBudget
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		q, ok := s.generate(ctx, prompt, budget)
		if !ok {
			// Budget elapsed first: abandon the in-flight call and return
			// the deterministic local question immediately.
			return FallbackFor(topic)
		}

		fp := Fingerprint(q.Text)
		seen, err := s.cache.Exists(ctx, fp)
		if err != nil {
			log.Printf("quiz: de-dup check failed, serving unchecked: %v", err)
			seen = false
		}
		if !seen {
			q.Topic = topic
			q.Source = SourceGenAI
			if err := s.cache.Record(ctx, fp, q); err != nil {
				log.Printf("quiz: cache record failed: %v", err)
			}
			return q
		}

		prompt += "\n\nIMPORTANT: Produce a DIFFERENT question than any previously generated."
		budget = s.retryBudget
	}
	return FallbackFor(topic)
}

// generate races one generator call against the budget. The losing late call
// is not awaited; its result lands in a buffered channel and is discarded.
func (s *Supplier) generate(ctx context.Context, prompt string, budget time.Duration) (Question, bool) {
	genCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ch := make(chan Question, 1)
	go func() {
		ch <- s.gen.GenerateQuestion(genCtx, prompt)
	}()

	select {
	case q := <-ch:
		if !q.Valid() {
			return Question{}, false
		}
		return q, true
	case <-genCtx.Done():
		return Question{}, false
	}
}
