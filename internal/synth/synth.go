// Package synth turns (author, placement, category) selections into
// literal title/body/price text from the template corpus.
package synth

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/cobblehill/lamplight/internal/checkpoint"
	"github.com/cobblehill/lamplight/internal/content"
	"github.com/cobblehill/lamplight/internal/pacing"
)

// Selection is the balancer's choice for one item. Region/Subregion are
// the effective placement for this item and may differ from the author's
// home geography.
type Selection struct {
	Author    content.Author
	Region    string
	Subregion string
	Category  string
}

// Candidate is an ephemeral generated item. It either becomes a stored
// item or is discarded by the moderation gate; it is never persisted in
// this form.
type Candidate struct {
	AuthorID   string
	Region     string
	Subregion  string
	Category   string
	Title      string
	Body       string
	PriceCents *int64
	CreatedAt  time.Time
}

// Synthesizer fills templates with contextual variables and applies the
// per-author tone and lexical variation.
type Synthesizer struct {
	corpus *Corpus
	hourly []float64
	loc    *time.Location
	rng    *rand.Rand
}

// New creates a synthesizer. hourlyWeights drives created-at sampling and
// is normally the same table the pacing model uses.
func New(corpus *Corpus, hourlyWeights []float64, loc *time.Location, rng *rand.Rand) *Synthesizer {
	return &Synthesizer{corpus: corpus, hourly: hourlyWeights, loc: loc, rng: rng}
}

// Compose produces a candidate item for the selection. The timestamp is
// not "now": it is sampled from the hourly-weight table within the current
// logical day (clamped to now) so arrivals look staggered rather than
// bursty.
func (s *Synthesizer) Compose(sel Selection, day checkpoint.Date, now time.Time) (Candidate, error) {
	pool := s.corpus.TemplatesFor(sel.Category)
	if len(pool) == 0 {
		return Candidate{}, fmt.Errorf("no templates for category %q", sel.Category)
	}
	tpl := pool[s.rng.Intn(len(pool))]

	title := s.fill(tpl.Title, sel)
	body := s.fill(tpl.Body, sel)

	title, body = ToneFor(sel.Author.ID).Apply(title, body)
	body = vary(body, s.rng)

	return Candidate{
		AuthorID:   sel.Author.ID,
		Region:     sel.Region,
		Subregion:  sel.Subregion,
		Category:   sel.Category,
		Title:      title,
		Body:       body,
		PriceCents: s.drawPrice(tpl),
		CreatedAt:  s.sampleCreatedAt(day, now),
	}, nil
}

// ComposeReply produces a reply body and timestamp for the given author.
// Replies share the tone and variation machinery with items.
func (s *Synthesizer) ComposeReply(author content.Author, day checkpoint.Date, now time.Time) (string, time.Time) {
	body := s.corpus.ReplyBodies[s.rng.Intn(len(s.corpus.ReplyBodies))]
	body = s.fill(body, Selection{Author: author, Region: author.Region, Subregion: author.Subregion})
	_, body = ToneFor(author.ID).Apply("", body)
	body = vary(body, s.rng)
	return body, s.sampleCreatedAt(day, now)
}

// fill substitutes contextual variables into a template.
func (s *Synthesizer) fill(text string, sel Selection) string {
	neighborhood := sel.Subregion
	if neighborhood == "" {
		neighborhood = sel.Region
	}
	r := strings.NewReplacer(
		"{neighborhood}", displayName(neighborhood),
		"{region}", displayName(sel.Region),
		"{street}", s.pick(s.corpus.Streets),
		"{place}", s.pick(s.corpus.Places),
		"{first_name}", sel.Author.FirstName,
	)
	return r.Replace(text)
}

func (s *Synthesizer) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[s.rng.Intn(len(pool))]
}

// drawPrice samples uniformly within the template's price range in minor
// units. A [0,0] range means no price and returns nil - it must never be
// stored as a real zero price.
func (s *Synthesizer) drawPrice(tpl Template) *int64 {
	if tpl.PriceMin == 0 && tpl.PriceMax == 0 {
		return nil
	}
	price := tpl.PriceMin
	if tpl.PriceMax > tpl.PriceMin {
		price += s.rng.Int63n(tpl.PriceMax - tpl.PriceMin + 1)
	}
	return &price
}

// sampleCreatedAt picks a timestamp within the logical day: an hour drawn
// from the weight table plus a uniform minute and second, clamped to now.
func (s *Synthesizer) sampleCreatedAt(day checkpoint.Date, now time.Time) time.Time {
	hour := pacing.SampleHour(s.hourly, s.rng)
	t := day.Time(s.loc).Add(
		time.Duration(hour)*time.Hour +
			time.Duration(s.rng.Intn(60))*time.Minute +
			time.Duration(s.rng.Intn(60))*time.Second,
	)
	if t.After(now) {
		return now
	}
	return t
}

// displayName turns a region slug like "park-slope" into "Park Slope".
func displayName(slug string) string {
	if slug == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}
