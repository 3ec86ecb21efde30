package family

import (
	"encoding/binary"
	"fmt"
)

// Binary record layout, version 1. Fixed-offset header so the Redis rotate
// script can patch the hash and counters in place without a full decode:
//
//	[0]      version
//	[1]      revoked flag
//	[2:6]    rotation count, uint32 BE
//	[6:14]   issued at, unix seconds, int64 BE
//	[14:22]  expires at, unix seconds, int64 BE
//	[22:54]  current refresh-token hash (SHA-256)
//	[54]     subject id length
//	[55:]    subject id bytes
const (
	recordVersionV1 = 1

	offRevoked   = 1
	offRotations = 2
	offIssuedAt  = 6
	offExpiresAt = 14
	offHash      = 22
	offSubjLen   = 54
	offSubject   = 55

	maxSubjectLen = 255
)

func encodeRecord(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrCorrupt)
	}
	if len(rec.SubjectID) == 0 || len(rec.SubjectID) > maxSubjectLen {
		return nil, fmt.Errorf("%w: subject id length %d", ErrCorrupt, len(rec.SubjectID))
	}

	buf := make([]byte, offSubject+len(rec.SubjectID))
	buf[0] = recordVersionV1
	if rec.Revoked {
		buf[offRevoked] = 1
	}
	binary.BigEndian.PutUint32(buf[offRotations:], rec.RotationCount)
	binary.BigEndian.PutUint64(buf[offIssuedAt:], uint64(rec.IssuedAt))
	binary.BigEndian.PutUint64(buf[offExpiresAt:], uint64(rec.ExpiresAt))
	copy(buf[offHash:], rec.CurrentHash[:])
	buf[offSubjLen] = byte(len(rec.SubjectID))
	copy(buf[offSubject:], rec.SubjectID)

	return buf, nil
}

func decodeRecord(data []byte) (*Record, error) {
	if len(data) < offSubject {
		return nil, fmt.Errorf("%w: short record (%d bytes)", ErrCorrupt, len(data))
	}
	if data[0] != recordVersionV1 {
		return nil, fmt.Errorf("%w: unknown record version %d", ErrCorrupt, data[0])
	}

	subjLen := int(data[offSubjLen])
	if subjLen == 0 || len(data) != offSubject+subjLen {
		return nil, fmt.Errorf("%w: subject length mismatch", ErrCorrupt)
	}

	rec := &Record{
		Revoked:       data[offRevoked] != 0,
		RotationCount: binary.BigEndian.Uint32(data[offRotations:]),
		IssuedAt:      int64(binary.BigEndian.Uint64(data[offIssuedAt:])),
		ExpiresAt:     int64(binary.BigEndian.Uint64(data[offExpiresAt:])),
		SubjectID:     string(data[offSubject : offSubject+subjLen]),
	}
	copy(rec.CurrentHash[:], data[offHash:offHash+32])

	return rec, nil
}
