package commands

import (
	"github.com/spf13/cobra"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

func listenCmd() *cobra.Command {
	var autoAnswer bool
	cmd := &cobra.Command{
		Use:   "listen <thread>",
		Short: "Stay online on a thread, printing messages and answering calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("auto-answer") {
				wire.Config.AutoAnswer = autoAnswer
			}
			ctx := cmd.Context()
			s, err := open(ctx, domain.ThreadID(args[0]))
			if err != nil {
				return err
			}
			defer s.close()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-s.client.Done():
					return nil
				case <-s.out.incoming:
					if wire.Config.AutoAnswer {
						continue
					}
					// Without a terminal prompt the only choice is to decline.
					if err := s.client.Decline(); err != nil {
						s.out.printf("! %v", err)
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&autoAnswer, "auto-answer", false, "answer incoming calls automatically (overrides auto_answer)")
	return cmd
}
