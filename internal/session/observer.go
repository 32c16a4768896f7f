package session

import "github.com/muurk/stouch/internal/protocol"

// Reply kinds passed to Observer.ReplySent
const (
	ReplyOK     = "ok"
	ReplyError  = "error"
	ReplySystem = "system"
)

// Observer receives session events, typically to feed metrics
type Observer interface {
	PacketReceived(packetType byte)
	PacketDropped()
	ReplySent(kind string)
	CommandProcessed(id protocol.CommandID)
	CommandIgnored(id protocol.CommandID)
	ConnectFinished(result ConnectResult)
}

type nopObserver struct{}

func (nopObserver) PacketReceived(byte)                 {}
func (nopObserver) PacketDropped()                      {}
func (nopObserver) ReplySent(string)                    {}
func (nopObserver) CommandProcessed(protocol.CommandID) {}
func (nopObserver) CommandIgnored(protocol.CommandID)   {}
func (nopObserver) ConnectFinished(ConnectResult)       {}
