package session

import (
	"fmt"

	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/protocol"
	"go.uber.org/zap"
)

// Reported by GETSYSTEM
var systemInfo = protocol.SystemInfo{
	BasisVersion: 142,
	AppMajor:     2,
	AppMinor:     15,
}

type replyKind int

const (
	replyOK replyKind = iota
	replyError
	// the command wrote its own reply, no generic trailer
	replyNone
)

// HandlePacket processes one controller datagram and returns the reply to
// send, or nil when the datagram is dropped silently.
func (s *Session) HandlePacket(datagram []byte) []byte {
	hdr, body, err := protocol.ParseHeader(datagram)
	if err != nil {
		logging.Debug("Dropping datagram", zap.Error(err), zap.Int("length", len(datagram)))
		s.observer.PacketDropped()
		s.stats.add(func(st *Stats) { st.PacketsDropped++ })
		return nil
	}
	s.observer.PacketReceived(hdr.Type)

	w := protocol.NewWriter(protocol.MaxDatagramSize)
	hdr.Encode(w)

	kind, processed, ignored := s.processCommands(hdr, body, w)

	touch := s.display.Touch()
	status := protocol.ReplyStatus{
		Processed: processed,
		Ignored:   ignored,
		Button:    touch.Button,
		X:         touch.X,
		Y:         touch.Y,
		FreeSpace: protocol.FreeCommandSpace,
	}

	switch kind {
	case replyOK:
		w.Truncate(protocol.HeaderSize)
		protocol.AppendOK(w, hdr.Type, status)
		s.observer.ReplySent(ReplyOK)
	case replyError:
		w.Truncate(protocol.HeaderSize)
		protocol.AppendError(w, hdr.Type, status)
		s.observer.ReplySent(ReplyError)
	case replyNone:
		s.observer.ReplySent(ReplySystem)
	}

	s.stats.add(func(st *Stats) {
		st.PacketsReceived++
		st.CommandsProcessed += processed
		st.CommandsIgnored += ignored
		if kind == replyError {
			st.ErrorReplies++
		}
	})
	return w.Bytes()
}

// processCommands walks the embedded commands until the body is exhausted
// or a command fails. A system reply is sticky: once a command has written
// its own reply, later successes do not add the generic trailer.
func (s *Session) processCommands(hdr protocol.Header, body []byte, w *protocol.Writer) (replyKind, int, int) {
	kind := replyOK
	processed, ignored := 0, 0
	ordinary := 0

	for len(body) > 0 {
		processed++
		if hdr.Type == protocol.PacketTypeCommand && processed > protocol.MaxCommandsPerPacket {
			logging.Debug("Too many commands in standard packet", zap.Int("count", processed))
			return replyError, processed, ignored
		}

		cmd, n, err := protocol.Next(body)
		if err != nil {
			logging.Debug("Undecodable command", zap.Error(err), zap.Stringer("packet", hdr))
			return replyError, processed, ignored
		}
		body = body[n:]

		if !cmd.ID().IsSystem() {
			counter := (hdr.Counter + ordinary) & 0xFFFF
			ordinary++
			if !s.enabled(counter) {
				logging.Debug("Skipping out of sequence command",
					zap.Stringer("command", cmd.ID()),
					zap.Int("counter", counter),
				)
				s.observer.CommandIgnored(cmd.ID())
				ignored++
				continue
			}
		}

		k, err := s.execute(cmd, w)
		if err != nil {
			logging.Warn("Command failed", zap.Stringer("command", cmd.ID()), zap.Error(err))
			return replyError, processed, ignored
		}
		s.observer.CommandProcessed(cmd.ID())
		if k == replyNone {
			kind = replyNone
		}
	}
	return kind, processed, ignored
}

// enabled applies the sequencing gate to an ordinary command carrying the
// given rolling counter
func (s *Session) enabled(counter int) bool {
	if !s.display.Sequenced() {
		return true
	}
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	if counter != s.lastSeen {
		return false
	}
	s.lastSeen = (s.lastSeen + 1) & 0xFFFF
	return true
}

func (s *Session) resetSequence() {
	s.seqMu.Lock()
	s.lastSeen = 0
	s.seqMu.Unlock()
}

// execute runs one command. Panics in a handler become errors so a single
// bad command cannot stop the receive loop.
func (s *Session) execute(cmd protocol.Command, w *protocol.Writer) (kind replyKind, err error) {
	defer func() {
		if r := recover(); r != nil {
			kind, err = replyError, fmt.Errorf("handler panic: %v", r)
		}
	}()

	switch c := cmd.(type) {
	case protocol.Bare:
		switch c.Cmd {
		case protocol.CmdGetSystem:
			protocol.AppendSystemInfo(w, systemInfo)
			return replyNone, nil
		case protocol.CmdGetResourceInfo:
			protocol.AppendResourceInfo(w, s.display.ResourceInfo())
			return replyNone, nil
		case protocol.CmdEraseResource, protocol.CmdFlashResource,
			protocol.CmdGoSystem, protocol.CmdClearID,
			protocol.CmdClearApp, protocol.CmdFlashApp, protocol.CmdActivateApp:
			protocol.AppendAck(w, c.Cmd, protocol.StatusOK)
			return replyNone, nil
		}

	case protocol.IntParam:
		switch c.Cmd {
		case protocol.CmdActivateResource:
			status := protocol.StatusOK
			if !s.display.SetChecksum(c.Value) {
				status = protocol.StatusChecksumRejected
			}
			protocol.AppendAck(w, c.Cmd, status)
			return replyNone, nil
		case protocol.CmdSetConfig:
			s.display.SetConfig(c.Value)
			if s.display.Sequenced() {
				s.resetSequence()
			}
			protocol.AppendConfig(w, s.display.Config())
			return replyNone, nil
		}
	}

	if cmd.ID().IsSystem() {
		return replyError, fmt.Errorf("unhandled system command %s", cmd.ID())
	}
	if !s.display.Apply(cmd) {
		return replyError, fmt.Errorf("display rejected %s", cmd.ID())
	}
	return replyOK, nil
}
