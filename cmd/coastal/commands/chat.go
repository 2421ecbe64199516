package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <thread> <peer>",
		Short: "Join a thread and exchange encrypted messages with a peer",
		Long: `Join a thread and exchange encrypted messages with a peer.

Lines typed are encrypted for <peer> and sent. Slash commands:
  /call     start an audio call with the peer
  /video    start a video call with the peer
  /answer   accept an incoming call
  /decline  reject an incoming call
  /hangup   end the current call
  /quit     leave`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			thread, peer := domain.ThreadID(args[0]), domain.UserID(args[1])

			s, err := open(ctx, thread)
			if err != nil {
				return err
			}
			defer s.close()

			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(os.Stdin)
				for sc.Scan() {
					lines <- sc.Text()
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-s.client.Done():
					return fmt.Errorf("connection closed")
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					if quit := s.handle(ctx, peer, strings.TrimSpace(line)); quit {
						return nil
					}
				}
			}
		},
	}
}

// handle runs one line of input and reports whether to quit.
func (s *session) handle(ctx context.Context, peer domain.UserID, line string) bool {
	var err error
	switch line {
	case "":
	case "/quit":
		return true
	case "/call":
		_, err = s.client.Call(ctx, domain.CallTypeAudio, peer)
	case "/video":
		_, err = s.client.Call(ctx, domain.CallTypeVideo, peer)
	case "/answer":
		_, err = s.client.Answer(ctx)
	case "/decline":
		err = s.client.Decline()
	case "/hangup":
		s.client.Hangup()
	default:
		sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		_, err = s.client.Send(sendCtx, peer, line)
		cancel()
	}
	if err != nil {
		s.out.printf("! %v", err)
	}
	return false
}
