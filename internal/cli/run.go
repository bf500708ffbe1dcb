package cli

import (
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command: a single one-shot invocation of
// one engine or both.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run [posts|listings|all]",
		Short: "Run an engine once and exit",
		Long: "Run performs a single invocation: load the checkpoint, evaluate\n" +
			"admission against today's organic volume, compute the pacing target,\n" +
			"synthesize and insert items, then persist the checkpoint.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			names, err := a.engineNames(arg)
			if err != nil {
				return err
			}

			for _, name := range names {
				res, err := a.engines[name].RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				if err := printResult(cmd.OutOrStdout(), opts.Format, name, res); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
