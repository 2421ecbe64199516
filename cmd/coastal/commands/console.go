package commands

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/emmaarthur191/coastal-project-sub004/internal/app"
	"github.com/emmaarthur191/coastal-project-sub004/internal/call"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
	"github.com/emmaarthur191/coastal-project-sub004/internal/socket"
)

// console prints chat, call and connection events to the terminal.
type console struct {
	mu  sync.Mutex
	out io.Writer

	incoming chan app.Incoming
	ended    chan domain.CallID
}

var (
	_ app.MessageSink  = (*console)(nil)
	_ app.ActivitySink = (*console)(nil)
	_ app.Notifier     = (*console)(nil)
	_ call.Observer    = (*console)(nil)
)

func newConsole(out io.Writer) *console {
	return &console{
		out:      out,
		incoming: make(chan app.Incoming, 4),
		ended:    make(chan domain.CallID, 4),
	}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *console) Message(m domain.DecryptedMessage) {
	c.printf("[%s] %s: %s", m.SentAt.Local().Format(time.Kitchen), m.From, m.Plaintext)
}

func (c *console) Undecryptable(m frame.Message, err error) {
	c.printf("! message %s from %s could not be decrypted: %v", m.ID, m.SenderID, err)
}

func (c *console) Typing(t frame.Typing) {
	if t.Active() {
		c.printf("… %s is typing", t.UserID)
	}
}

func (c *console) Presence(p frame.Presence) { c.printf("* %s is %s", p.UserID, p.Status) }

func (c *console) Reaction(r frame.Reaction) {
	if r.Added() {
		c.printf("* %s reacted %s to %s", r.UserID, r.Emoji, r.MessageID)
	}
}

func (c *console) IncomingCall(in app.Incoming) {
	c.printf("* incoming %s call from %s (/answer or /decline)", in.Type, in.From.DisplayName())
	select {
	case c.incoming <- in:
	default:
	}
}

func (c *console) CallEnded(id domain.CallID, reason call.EndReason) {
	c.printf("* call ended (%s)", reason)
	select {
	case c.ended <- id:
	default:
	}
}

func (c *console) ConnectionState(st socket.ConnState) {
	switch st.Status {
	case socket.StatusOpen:
		c.printf("* connected")
	case socket.StatusReconnecting:
		c.printf("* connection lost; retry %d in %s", st.Attempt, st.Delay)
	case socket.StatusGaveUp:
		c.printf("* could not reconnect; giving up")
	}
}

func (c *console) StateChanged(s call.State) { c.printf("* call %s", s) }

func (c *console) RemoteTrack(p domain.UserID, t call.RemoteTrack) {
	c.printf("* receiving %s from %s", t.Kind(), p)
}

func (c *console) ParticipantLeft(p domain.UserID) { c.printf("* %s left the call", p) }

func (c *console) Notice(n call.Notice) { c.printf("! %s", n.Text()) }
