package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/socket"
)

func callCmd() *cobra.Command {
	var video bool
	cmd := &cobra.Command{
		Use:   "call <thread> <peer>...",
		Short: "Call one or more peers and stay on the line until the call ends",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx, domain.ThreadID(args[0]))
			if err != nil {
				return err
			}
			defer s.close()

			if err := waitOpen(s); err != nil {
				return err
			}

			t := domain.CallTypeAudio
			if video {
				t = domain.CallTypeVideo
			}
			peers := make([]domain.UserID, 0, len(args)-1)
			for _, p := range args[1:] {
				peers = append(peers, domain.UserID(p))
			}
			m, err := s.client.Call(ctx, t, peers...)
			if err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case id := <-s.out.ended:
					if id == m.Session().ID {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&video, "video", false, "start a video call")
	return cmd
}

// waitOpen blocks until the socket is open, so the offers are not dropped.
func waitOpen(s *session) error {
	for s.client.Status() != socket.StatusOpen {
		select {
		case <-s.client.Done():
			return fmt.Errorf("could not connect")
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}
