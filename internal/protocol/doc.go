// Package protocol implements the S-Touch touch-panel wire protocol.
//
// This package decodes and encodes the datagrams a heating controller
// exchanges with its S-Touch display over UDP. It is stateless; the session
// package owns sequencing and the display model.
//
// # Envelope
//
// Every controller packet starts with a 5-byte header:
//   - Packet type: 1 (standard) or 9 (extended)
//   - Command counter: 2 bytes (little-endian)
//   - Packet id: 2 bytes (little-endian)
//
// The remaining bytes are concatenated commands, each a 1-byte command id
// followed by its payload. Replies echo the header and append either a
// generic OK/error trailer or the self-contained reply of a system command.
//
// # Commands
//
// The command table maps ids to a payload length and a payload kind. Most
// lengths are fixed; PRINT, PRINTXY and PRINTROT end in a null-terminated
// Windows-1252 string whose length is found by scanning from a fixed offset.
// Decoded commands are values of a closed set of types (Bare, ByteParam,
// Position, DrawRect, PrintXY, SetButton, ...) intended for a type switch.
//
// # Usage Example
//
//	hdr, body, err := protocol.ParseHeader(datagram)
//	if err != nil {
//	    return err // unsupported type or short envelope, drop it
//	}
//	for len(body) > 0 {
//	    cmd, n, err := protocol.Next(body)
//	    if err != nil {
//	        break // truncated, malformed or unknown: packet error reply
//	    }
//	    body = body[n:]
//	    switch c := cmd.(type) {
//	    case protocol.SetButton:
//	        fmt.Println("button", c.ID)
//	    }
//	}
//
// # Error Handling
//
// Codec failures are *Error values with an ErrorType:
//   - Truncated: fewer bytes than a fixed-length field needs
//   - Malformed: a string without terminator
//   - Unknown Command: an id missing from the table
//   - Encode Error: a value the wire cannot carry
//
// Use errors.Is with ErrTruncated, ErrMalformed, ErrUnknownCommand.
//
// # Thread Safety
//
// All functions are stateless. Reader and Writer values must not be shared
// between goroutines.
package protocol
