package synth

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var corpusYAML []byte

// Template is one fillable item template. PriceMin/PriceMax are minor
// currency units; a [0,0] range means the item has no price at all.
type Template struct {
	Title    string `yaml:"title"`
	Body     string `yaml:"body"`
	PriceMin int64  `yaml:"price_min"`
	PriceMax int64  `yaml:"price_max"`
}

// Corpus is the static template and name-pool reference data. It is
// read-only after load and safe to share across engines.
type Corpus struct {
	Templates   map[string][]Template `yaml:"templates"`
	ReplyBodies []string              `yaml:"reply_bodies"`
	Streets     []string              `yaml:"streets"`
	Places      []string              `yaml:"places"`
	FirstNames  []string              `yaml:"first_names"`
	LastNames   []string              `yaml:"last_names"`
}

// LoadCorpus parses the embedded corpus.
func LoadCorpus() (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(corpusYAML, &c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(c.Templates) == 0 {
		return nil, fmt.Errorf("corpus has no templates")
	}
	if len(c.ReplyBodies) == 0 {
		return nil, fmt.Errorf("corpus has no reply bodies")
	}
	return &c, nil
}

// TemplatesFor returns the template pool for a category, or nil.
func (c *Corpus) TemplatesFor(category string) []Template {
	return c.Templates[category]
}
