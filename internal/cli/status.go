package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cobblehill/lamplight/internal/checkpoint"
)

// NewStatusCommand creates the status command: print each engine's stored
// checkpoint without running anything.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [posts|listings|all]",
		Short: "Show engine checkpoints",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			// Status only reads checkpoints; the content store stays closed.
			cps, err := checkpoint.OpenStore(cfg.CheckpointDir)
			if err != nil {
				return err
			}
			defer cps.Close()

			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			names, err := (&app{cfg: cfg}).engineNames(arg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				cp, err := cps.Get(cmd.Context(), name)
				if errors.Is(err, checkpoint.ErrNotFound) {
					fmt.Fprintf(out, "%s: no checkpoint (never run)\n", name)
					continue
				}
				if err != nil {
					return err
				}

				if opts.Format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(cp); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out,
					"%s: date=%s created_today=%d active_authors=%d last_item=%s enabled=%t version=%d\n",
					cp.Engine,
					cp.LogicalDate,
					cp.ItemsCreatedToday,
					len(cp.PerAuthorDailyCount),
					formatLastItem(cp),
					cp.Enabled,
					cp.Version,
				)
			}
			return nil
		},
	}
}

func formatLastItem(cp *checkpoint.Checkpoint) string {
	if cp.LastItemAt.IsZero() {
		return "never"
	}
	return cp.LastItemAt.Format("2006-01-02 15:04:05")
}
