package balance

import (
	"math/rand"

	"github.com/cobblehill/lamplight/internal/content"
)

// PickAuthor selects a synthetic author for an item placed in the given
// region. Authors at or over the daily cap are excluded. Authors whose home
// region matches the placement are preferred; when none live there, any
// eligible author is chosen and the caller assigns the placement as the
// author's effective region for this item (identity and geography are
// independent axes).
//
// Returns false when every author is exhausted; the caller abandons the
// slot rather than retrying.
func PickAuthor(authors []content.Author, region string, used func(string) int, dailyCap int, rng *rand.Rand) (content.Author, bool) {
	var eligible, local []content.Author
	for _, a := range authors {
		if dailyCap > 0 && used(a.ID) >= dailyCap {
			continue
		}
		eligible = append(eligible, a)
		if a.Region == region {
			local = append(local, a)
		}
	}
	if len(local) > 0 {
		return local[rng.Intn(len(local))], true
	}
	if len(eligible) > 0 {
		return eligible[rng.Intn(len(eligible))], true
	}
	return content.Author{}, false
}

// PickReplyAuthor selects an author for a reply to an item, excluding the
// item's own author and anyone at the daily cap.
func PickReplyAuthor(authors []content.Author, itemAuthorID string, used func(string) int, dailyCap int, rng *rand.Rand) (content.Author, bool) {
	var eligible []content.Author
	for _, a := range authors {
		if a.ID == itemAuthorID {
			continue
		}
		if dailyCap > 0 && used(a.ID) >= dailyCap {
			continue
		}
		eligible = append(eligible, a)
	}
	if len(eligible) == 0 {
		return content.Author{}, false
	}
	return eligible[rng.Intn(len(eligible))], true
}
