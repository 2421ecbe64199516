package commands

import (
	"context"
	"os"

	"github.com/emmaarthur191/coastal-project-sub004/internal/app"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/rtc"
)

// session is an open thread with its printer.
type session struct {
	client *app.Client
	out    *console
	close  func()
}

// open unlocks the identity and connects to thread.
func open(ctx context.Context, thread domain.ThreadID) (*session, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	keys, err := wire.Session(passphrase)
	if err != nil {
		return nil, err
	}
	conn, err := wire.Connector(nil)
	if err != nil {
		keys.Clear()
		return nil, err
	}

	out := newConsole(os.Stdout)
	c, err := wire.Client(keys, thread, conn, rtc.NewSyntheticMedia(), out, out, out)
	if err != nil {
		keys.Clear()
		return nil, err
	}
	c.Connect(ctx)
	return &session{
		client: c,
		out:    out,
		close: func() {
			c.Close()
			keys.Clear()
		},
	}, nil
}
