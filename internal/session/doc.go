// Package session emulates one S-Touch panel talking to its controller over UDP.
//
// A Session owns a single UDP socket. Connect performs the password handshake,
// retrying up to Config.Retries times with Config.ReceiveTimeout per attempt,
// and on success starts a receive loop that answers every command packet the
// controller sends. Disconnect stops the loop and performs the disconnect
// handshake.
//
// # Packet Handling
//
// HandlePacket is the whole per-datagram pipeline and can be used without a
// socket:
//  1. The 5-byte header is parsed; unsupported types are dropped silently
//  2. Embedded commands are decoded and applied to the display one by one
//  3. The reply echoes the header followed by a generic OK or error trailer,
//     or by the replies of system commands (GETSYSTEM, SETCONFIG, ...)
//
// When bit 0 of the config word is set the controller numbers ordinary
// commands. A command whose number does not match the next expected one is
// skipped and counted as ignored in the reply.
//
// # Usage Example
//
//	s := session.New(session.Config{
//	    Endpoint: session.Endpoint{Address: "192.168.1.20", Password: "1234"},
//	})
//	if r := s.Connect(ctx); r != session.Success {
//	    log.Fatal(r.Message())
//	}
//	defer s.Disconnect(ctx)
//	s.TouchText("Start")
package session
