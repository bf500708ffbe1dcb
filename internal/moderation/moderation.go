// Package moderation gates generated text through an external
// classification oracle before anything reaches the content store.
package moderation

import (
	"context"
	"strings"
)

// Verdict is the oracle's classification of a single text blob.
type Verdict struct {
	Blocked bool
	Flagged bool
	Reason  string
}

// Oracle classifies a text blob. Implementations may call out over the
// network; the gate treats any Classify error as blocked (fail closed) so
// unreviewed synthetic text can never be inserted.
type Oracle interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Decision is the gate's aggregate outcome over an item's text fields.
//
// Blocked means at least one field was blocked (or the oracle failed) and
// the item must be discarded without retry. Flagged means the item passes
// but is marked reviewable; Reason retains the last flag reason seen for
// audit.
type Decision struct {
	Blocked bool
	Flagged bool
	Reason  string
}

// Gate reviews candidate items field by field.
type Gate struct {
	oracle Oracle
}

// NewGate creates a gate over the given oracle.
func NewGate(oracle Oracle) *Gate {
	return &Gate{oracle: oracle}
}

// Review classifies each field independently and folds the verdicts into a
// single decision. The first blocked field short-circuits the rest.
func (g *Gate) Review(ctx context.Context, fields ...string) Decision {
	var d Decision
	for _, field := range fields {
		v, err := g.oracle.Classify(ctx, field)
		if err != nil {
			// Fail closed: no verdict means no insert.
			return Decision{Blocked: true, Reason: "oracle unavailable: " + err.Error()}
		}
		if v.Blocked {
			return Decision{Blocked: true, Reason: v.Reason}
		}
		if v.Flagged {
			d.Flagged = true
			d.Reason = v.Reason
		}
	}
	return d
}

// ListOracle is a word-list oracle: any blocklisted token blocks, any
// flaglisted token flags. It is the default local wiring; production
// deployments swap in a real classification service behind the same
// interface.
type ListOracle struct {
	blocked map[string]struct{}
	flagged map[string]struct{}
}

// NewListOracle builds an oracle from blocklist and flaglist word sets.
// Matching is case-insensitive on whitespace- and punctuation-trimmed
// tokens.
func NewListOracle(blocklist, flaglist []string) *ListOracle {
	o := &ListOracle{
		blocked: make(map[string]struct{}, len(blocklist)),
		flagged: make(map[string]struct{}, len(flaglist)),
	}
	for _, w := range blocklist {
		o.blocked[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range flaglist {
		o.flagged[strings.ToLower(w)] = struct{}{}
	}
	return o
}

// Classify implements Oracle.
func (o *ListOracle) Classify(_ context.Context, text string) (Verdict, error) {
	for _, token := range tokenize(text) {
		if _, ok := o.blocked[token]; ok {
			return Verdict{Blocked: true, Reason: "blocklisted term: " + token}, nil
		}
	}
	for _, token := range tokenize(text) {
		if _, ok := o.flagged[token]; ok {
			return Verdict{Flagged: true, Reason: "flagged term: " + token}, nil
		}
	}
	return Verdict{}, nil
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.Trim(f, ".,!?;:'\"()"))
	}
	return tokens
}
