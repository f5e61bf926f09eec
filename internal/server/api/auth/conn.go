package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// Conn is an authenticated session: an AEAD-sealed net.Conn plus the
// device-scope binding that ties the session's lifetime to one device.
// A watch/{id} stream binds its Conn to id via BindDevice as soon as the
// device is resolved; once the device goes offline or is unplugged, the
// stream handler calls Invalidate to tear the session down rather than
// leave an authenticated socket open against a device that is no longer
// there to own it.
type Conn struct {
	net.Conn
	aead    cipher.AEAD
	sendCtr uint64
	recvBuf bytes.Buffer
	mu      sync.Mutex

	scopeMu  sync.Mutex
	deviceID string
}

const maxPacketSize = 2 * 1024 * 1024 // 2 MB

func WrapConn(conn net.Conn, sessionKey []byte) (net.Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead}, nil
}

// BindDevice scopes this session to a single device id. A session is
// unscoped (Authorized returns true for any id) until its first bind.
func (s *Conn) BindDevice(id string) {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	s.deviceID = id
}

// DeviceID returns the device this session is bound to, or "" if unscoped.
func (s *Conn) DeviceID() string {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	return s.deviceID
}

// Authorized reports whether this session may address id: true when the
// session is unscoped, or id matches the bound device.
func (s *Conn) Authorized(id string) bool {
	bound := s.DeviceID()
	return bound == "" || bound == id
}

// Invalidate closes the underlying socket, ending the session. Called when
// the device a session is scoped to transitions offline or is removed by
// the hotplug observer, so a stream's authenticated connection doesn't
// outlive the device it exists to report on.
func (s *Conn) Invalidate() error {
	return s.Conn.Close()
}

func (s *Conn) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := make([]byte, 12)
	binary.BigEndian.PutUint64(nonce[4:], s.sendCtr)
	s.sendCtr++

	ct := s.aead.Seal(nil, nonce, p, nil)
	length := uint32(len(nonce) + len(ct))

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], length)

	if i, err := s.Conn.Write(hdr[:]); err != nil {
		return i, err
	}
	if i, err := s.Conn.Write(nonce); err != nil {
		return i, err
	}
	if i, err := s.Conn.Write(ct); err != nil {
		return i, err
	}

	return len(p), nil
}

func (s *Conn) Read(p []byte) (int, error) {
	if s.recvBuf.Len() == 0 {
		var hdr [4]byte
		if i, err := io.ReadFull(s.Conn, hdr[:]); err != nil {
			return i, err
		}
		length := binary.BigEndian.Uint32(hdr[:])
		if length > maxPacketSize {
			return 0, io.ErrUnexpectedEOF
		}

		pkt := make([]byte, length)
		if i, err := io.ReadFull(s.Conn, pkt); err != nil {
			return i, err
		}

		nonce := pkt[:12]
		ct := pkt[12:]

		pt, err := s.aead.Open(nil, nonce, ct, nil)
		if err != nil {
			return 0, err
		}

		s.recvBuf.Write(pt)
	}
	return s.recvBuf.Read(p)
}
