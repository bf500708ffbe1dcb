package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cobblehill/lamplight/internal/engine"
)

// printResult renders a run result in the selected format.
func printResult(w io.Writer, format, name string, res engine.Result) error {
	if format == "json" {
		out := struct {
			Engine string `json:"engine"`
			engine.Result
		}{Engine: name, Result: res}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	_, err := fmt.Fprintf(w,
		"%s: items=%d replies=%d skipped=%d admission=%s daily_total=%d enabled=%t\n",
		name,
		res.ItemsCreated,
		res.RepliesCreated,
		res.SkippedForModeration,
		res.AdmissionLevel,
		res.DailyTotal,
		res.Enabled,
	)
	return err
}
