package net

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrLineTooLong is returned when an input line exceeds the configured
// maximum. The session is terminated when this happens.
var ErrLineTooLong = errors.New("input line too long")

// Telnet protocol bytes. Only the subset needed to negotiate ECHO and to
// skip unsupported option requests is recognized; everything else on the
// wire is treated as plain text.
const (
	telnetIAC  = 255
	telnetDONT = 254
	telnetDO   = 253
	telnetWONT = 252
	telnetWILL = 251
	telnetSB   = 250
	telnetSE   = 240

	telnetOptEcho = 1
)

// readTelnetLine reads one CRLF- or LF-terminated line from r, stripping IAC
// sequences and the terminator. Option requests from the client are consumed
// and ignored; negotiation replies are the listener's job, not the reader's.
// maxLen bounds the accumulated line; exceeding it returns ErrLineTooLong.
func readTelnetLine(r *bufio.Reader, maxLen int) (string, error) {
	line := make([]byte, 0, 64)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("read line: %w", err)
		}

		switch b {
		case telnetIAC:
			if err := skipIAC(r); err != nil {
				return "", err
			}
		case '\n':
			return string(line), nil
		case '\r', 0:
			// CR is always followed by LF or NUL in telnet; drop it and let
			// the next byte terminate the line.
		default:
			// 7-bit printable ASCII plus ESC (ANSI input sequences are kept
			// verbatim; the minigame state consumes them as key ticks).
			line = append(line, b)
			if len(line) > maxLen {
				return "", ErrLineTooLong
			}
		}
	}
}

// skipIAC consumes the remainder of an IAC sequence whose lead byte was
// already read.
func skipIAC(r *bufio.Reader) error {
	cmd, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("read iac command: %w", err)
	}
	switch cmd {
	case telnetDO, telnetDONT, telnetWILL, telnetWONT:
		if _, err := r.ReadByte(); err != nil {
			return fmt.Errorf("read iac option: %w", err)
		}
	case telnetSB:
		// Subnegotiation: consume until IAC SE.
		for {
			b, err := r.ReadByte()
			if err != nil {
				return fmt.Errorf("read iac subneg: %w", err)
			}
			if b != telnetIAC {
				continue
			}
			next, err := r.ReadByte()
			if err != nil {
				return fmt.Errorf("read iac subneg end: %w", err)
			}
			if next == telnetSE {
				return nil
			}
		}
	}
	return nil
}

// writeEchoNegotiation sends IAC WILL/WONT ECHO. WILL ECHO tells the client
// the server echoes, which stops local echo — that is how password masking
// works over telnet.
func writeEchoNegotiation(w io.Writer, mask bool) error {
	verb := byte(telnetWONT)
	if mask {
		verb = telnetWILL
	}
	_, err := w.Write([]byte{telnetIAC, verb, telnetOptEcho})
	return err
}
