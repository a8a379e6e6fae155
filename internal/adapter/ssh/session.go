package ssh

import (
	"context"
	"errors"
	"strings"
	"time"

	gossh "golang.org/x/crypto/ssh"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/metrics"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/shell"
)

const logoutMessage = "\r\nlogout\r\nConnection to host closed.\r\n"

// session drives one interactive shell over an accepted SSH channel.
// It owns the line editor: bytes arrive raw (the client is in a pty),
// get echoed back, and complete lines run through the command registry.
type session struct {
	channel  gossh.Channel
	out      *tarpitWriter
	shellCtx *shell.Context
	registry *shell.Registry
	rec      *recorder.Recorder
	metrics  *metrics.Metrics

	authID     string
	inactivity time.Duration
	started    time.Time
}

// run blocks until the attacker disconnects, times out or types exit.
func (s *session) run(ctx context.Context) {
	s.started = time.Now()
	s.metrics.SessionOpened()
	defer func() {
		duration := time.Since(s.started)
		s.metrics.SessionClosed(duration.Seconds())
		if err := s.rec.RecordSession(context.Background(), s.authID, duration, ""); err != nil {
			logger.WarnCtx(ctx, "failed to record session", "error", err)
		}
		logger.InfoCtx(ctx, "session closed", "duration_ms", duration.Milliseconds())
	}()

	s.write(generateWelcome("Ubuntu 20.04.4 LTS (GNU/Linux 5.4.0-109-generic x86_64)"))
	s.write(s.shellCtx.Prompt())

	// Reads happen in their own goroutine so the main loop can race
	// them against the inactivity timer and shutdown.
	input := make(chan []byte)
	go func() {
		defer close(input)
		buf := make([]byte, 256)
		for {
			n, err := s.channel.Read(buf)
			if err != nil {
				return
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case input <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	var line strings.Builder
	lastCR := false

	for {
		select {
		case <-ctx.Done():
			s.write(logoutMessage)
			return

		case <-time.After(s.inactivity):
			logger.WarnCtx(ctx, "session timed out due to inactivity")
			s.write("\r\ntimed out waiting for input: auto-logout\r\n")
			return

		case chunk, ok := <-input:
			if !ok {
				return
			}
			for _, b := range chunk {
				done := s.handleByte(ctx, b, &line, &lastCR)
				if done {
					return
				}
			}
		}
	}
}

// handleByte processes one input byte through the line editor. It
// returns true when the session should end.
func (s *session) handleByte(ctx context.Context, b byte, line *strings.Builder, lastCR *bool) bool {
	// Swallow the LF of a CRLF pair; the CR already ran the command.
	if b == '\n' && *lastCR {
		*lastCR = false
		return false
	}
	*lastCR = b == '\r'

	switch b {
	case 0x04: // ^D
		logger.DebugCtx(ctx, "client requested end of session")
		s.write(logoutMessage)
		return true

	case 0x7f, 0x08: // backspace
		if line.Len() == 0 {
			// Nothing to delete; ring the bell instead of eating the prompt.
			s.write("\a")
			return false
		}
		current := line.String()
		line.Reset()
		line.WriteString(current[:len(current)-1])
		s.write("\b \b")
		return false

	case 0x03: // ^C
		line.Reset()
		s.write("\r\n" + s.shellCtx.Prompt())
		return false

	case '\r', '\n':
		cmd := line.String()
		line.Reset()
		return s.execute(ctx, cmd)

	default:
		if b < 0x20 {
			// Remaining control bytes are ignored rather than echoed.
			return false
		}
		line.WriteByte(b)
		// string(b) would re-encode bytes >= 0x80 as a two-byte rune and
		// garble multi-byte input; echo the raw byte as received.
		s.write(string([]byte{b}))
		return false
	}
}

// execute records and runs one completed command line. It returns true
// when the command ends the session.
func (s *session) execute(ctx context.Context, cmd string) bool {
	if err := s.rec.RecordCommand(ctx, s.authID, cmd); err != nil {
		logger.ErrorCtx(ctx, "failed to record command", "error", err)
	}
	if name := strings.Fields(cmd); len(name) > 0 {
		s.metrics.RecordCommand(name[0])
	}
	logger.InfoCtx(ctx, "command received", logger.KeyCommand, cmd)

	output, err := s.registry.Dispatch(cmd, s.shellCtx)
	if errors.Is(err, shell.ErrExit) {
		s.write(logoutMessage)
		return true
	}

	s.write("\r\n")
	s.write(output)
	s.write(s.shellCtx.Prompt())
	return false
}

func (s *session) write(data string) {
	if _, err := s.out.WriteString(data); err != nil {
		logger.Debug("session write after close", "error", err)
	}
}
