package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cobblehill/lamplight/internal/config"
	"github.com/cobblehill/lamplight/internal/content"
	"github.com/cobblehill/lamplight/internal/synth"
)

// NewInitAuthorsCommand creates the init-authors command: seed the content
// store with synthetic accounts drawn from the corpus name pools, spread
// across regions in proportion to their coverage weights.
func NewInitAuthorsCommand(opts *RootOptions) *cobra.Command {
	var (
		count int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "init-authors",
		Short: "Seed synthetic author accounts",
		Long: "Init-authors inserts synthetic accounts into the content store.\n" +
			"The engines only select from accounts that already exist; run this\n" +
			"once before the first engine invocation.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			store, err := content.Open(cfg.ContentDB)
			if err != nil {
				return err
			}
			defer store.Close()

			corpus, err := synth.LoadCorpus()
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(seed))
			if seed == 0 {
				rng = rand.New(rand.NewSource(time.Now().UnixNano()))
			}

			authors := makeAuthors(corpus, cfg.Regions, count, rng)
			res, err := store.InsertAuthors(cmd.Context(), authors)
			if err != nil {
				return err
			}
			for _, insErr := range res.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "author skipped: %v\n", insErr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d synthetic authors\n", res.Inserted)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 200, "number of accounts to create")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")

	return cmd
}

// makeAuthors draws names from the corpus pools and assigns each account a
// home region and subregion weighted like item placement, so the engines
// find local authors everywhere they place items.
func makeAuthors(corpus *synth.Corpus, regions []config.RegionConfig, count int, rng *rand.Rand) []content.Author {
	now := time.Now().UTC()
	authors := make([]content.Author, 0, count)
	for i := 0; i < count; i++ {
		first := corpus.FirstNames[rng.Intn(len(corpus.FirstNames))]
		last := corpus.LastNames[rng.Intn(len(corpus.LastNames))]
		region, sub := pickWeightedRegion(regions, rng)

		authors = append(authors, content.Author{
			ID:          uuid.NewString(),
			DisplayName: fmt.Sprintf("%s %s.", first, last[:1]),
			FirstName:   first,
			Region:      region,
			Subregion:   sub,
			Synthetic:   true,
			// Stagger join dates over the trailing year.
			CreatedAt: now.AddDate(0, 0, -rng.Intn(365)),
		})
	}
	return authors
}

// pickWeightedRegion samples a region by weight, then a subregion by weight
// within it.
func pickWeightedRegion(regions []config.RegionConfig, rng *rand.Rand) (string, string) {
	var total float64
	for _, r := range regions {
		total += r.Weight
	}
	roll := rng.Float64() * total
	for _, r := range regions {
		roll -= r.Weight
		if roll > 0 {
			continue
		}
		var subTotal float64
		for _, s := range r.Subregions {
			subTotal += s.Weight
		}
		subRoll := rng.Float64() * subTotal
		for _, s := range r.Subregions {
			subRoll -= s.Weight
			if subRoll <= 0 {
				return r.Name, s.Name
			}
		}
		return r.Name, ""
	}
	// Float drift can leave a sliver past the last region.
	last := regions[len(regions)-1]
	if len(last.Subregions) > 0 {
		return last.Name, last.Subregions[0].Name
	}
	return last.Name, ""
}
