package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Upload your public key to the key directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			fp, err := wire.Publish(ctx, passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Published key for %s.\nFingerprint: %s\n", wire.Config.UserID, fp)
			return nil
		},
	}
}
