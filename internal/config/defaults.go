package config

// Default returns the built-in configuration. Weight tables model a
// five-borough deployment; category mixes differ per engine.
func Default() *Config {
	return &Config{
		Timezone:      "America/New_York",
		ContentDB:     "lamplight.db",
		CheckpointDir: "lamplight-state",
		MetricsAddr:   "",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Moderation: ModerationConfig{
			// Single tokens; the list oracle matches word by word.
			Blocklist: []string{"counterfeit", "replica", "escort", "crypto"},
			Flaglist:  []string{"cash", "urgent", "wholesale"},
		},
		Regions: []RegionConfig{
			{
				Name: "brooklyn", Weight: 35,
				Subregions: []WeightConfig{
					{Name: "williamsburg", Weight: 25},
					{Name: "park-slope", Weight: 20},
					{Name: "bed-stuy", Weight: 20},
					{Name: "bushwick", Weight: 20},
					{Name: "sunset-park", Weight: 15},
				},
			},
			{
				Name: "manhattan", Weight: 30,
				Subregions: []WeightConfig{
					{Name: "upper-west-side", Weight: 25},
					{Name: "east-village", Weight: 25},
					{Name: "harlem", Weight: 25},
					{Name: "chelsea", Weight: 25},
				},
			},
			{
				Name: "queens", Weight: 20,
				Subregions: []WeightConfig{
					{Name: "astoria", Weight: 40},
					{Name: "jackson-heights", Weight: 30},
					{Name: "flushing", Weight: 30},
				},
			},
			{
				Name: "bronx", Weight: 10,
				Subregions: []WeightConfig{
					{Name: "riverdale", Weight: 50},
					{Name: "fordham", Weight: 50},
				},
			},
			{
				Name: "staten-island", Weight: 5,
				Subregions: []WeightConfig{
					{Name: "st-george", Weight: 60},
					{Name: "tottenville", Weight: 40},
				},
			},
		},
		Posts: EngineConfig{
			Cron:         "*/15 * * * *",
			SlicesPerDay: 96,
			// 24 weights summing to 120: the full-rate daily post total.
			HourlyWeights: []float64{
				2, 1, 1, 1, 1, 1,
				2, 4, 5, 6, 6, 6,
				6, 6, 6, 6, 7, 8,
				10, 11, 9, 7, 5, 3,
			},
			WeeklyRamp:        []float64{0.3, 0.55, 0.8, 1.0},
			WeekendMultiplier: 1.2,
			JitterMax:         1,
			AdmissionHalf:     20,
			AdmissionQuarter:  35,
			AdmissionSuppress: 50,
			AuthorDailyCap:    3,
			AuthorLimit:       200,
			Tolerance:         0.1,
			ReplyPass:         true,
			ReplyWindowHours:  48,
			ReplyFetchLimit:   50,
			Categories: []WeightConfig{
				{Name: "general", Weight: 30},
				{Name: "events", Weight: 20},
				{Name: "recommendations", Weight: 18},
				{Name: "lost-found", Weight: 12},
				{Name: "help-wanted", Weight: 10},
				{Name: "free-stuff", Weight: 10},
			},
		},
		Listings: EngineConfig{
			Cron:         "0 6 * * *",
			SlicesPerDay: 1,
			// Daily-paced: the table only shapes created-at sampling.
			HourlyWeights: []float64{
				1, 1, 1, 1, 1, 2,
				3, 5, 6, 7, 7, 7,
				7, 6, 6, 6, 7, 8,
				9, 9, 8, 6, 4, 2,
			},
			WeeklyRamp:        []float64{0.3, 0.55, 0.8, 1.0},
			WeekdayBand:       []float64{18, 30},
			WeekendBand:       []float64{24, 40},
			GrowthRate:        0.004,
			GrowthCap:         1.5,
			JitterMax:         2,
			AdmissionHalf:     100,
			AdmissionQuarter:  200,
			AdmissionSuppress: 300,
			AuthorDailyCap:    3,
			AuthorLimit:       200,
			Tolerance:         0.1,
			ReplyPass:         false,
			Categories: []WeightConfig{
				{Name: "personals", Weight: 25},
				{Name: "housing", Weight: 18},
				{Name: "furniture", Weight: 15},
				{Name: "electronics", Weight: 12},
				{Name: "services", Weight: 10},
				{Name: "vehicles", Weight: 8},
				{Name: "free-stuff", Weight: 7},
				{Name: "garage-sale", Weight: 5},
			},
		},
	}
}
