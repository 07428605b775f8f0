package markers

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const challengeRecordVersion1 = 1

// ErrChallengeCorrupt is an exported constant or variable used by the lifecycle orchestrator.
var ErrChallengeCorrupt = errors.New("pending challenge record corrupt")

// Challenge is the ephemeral pending-MFA record parked while the challenge
// screen verifies the second factor. It must not outlive the browsing
// session and is consumed exactly once.
type Challenge struct {
	ChallengeID string
	SubjectID   string
	Email       string
	Role        string
	Branch      string
	IssuedAt    int64
}

// EncodeChallenge serializes a challenge record with a leading version byte.
func EncodeChallenge(c *Challenge) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, c.IssuedAt); err != nil {
		return nil, err
	}

	for _, field := range []string{c.ChallengeID, c.SubjectID, c.Email, c.Role, c.Branch} {
		if len(field) > 65535 {
			return nil, errors.New("challenge field length exceeded")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

// DecodeChallenge parses a record produced by EncodeChallenge.
func DecodeChallenge(data []byte) (*Challenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrChallengeCorrupt
	}
	if version != challengeRecordVersion1 {
		return nil, ErrChallengeCorrupt
	}

	record := &Challenge{}
	if err := binary.Read(reader, binary.BigEndian, &record.IssuedAt); err != nil {
		return nil, ErrChallengeCorrupt
	}

	fields := []*string{&record.ChallengeID, &record.SubjectID, &record.Email, &record.Role, &record.Branch}
	for _, field := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, ErrChallengeCorrupt
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, ErrChallengeCorrupt
		}
		*field = string(raw)
	}

	return record, nil
}
