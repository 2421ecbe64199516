package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emmaarthur191/coastal-project-sub004/internal/store"
)

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate an identity key pair and store it encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if store.NewIdentityFileStore(wire.Config.Home).Exists() && !force {
				return fmt.Errorf("identity already exists in %s (use --force to replace it)", wire.Config.Home)
			}
			_, fp, err := wire.Identity.Generate(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nFingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing identity")
	return cmd
}
