package redisstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

const (
	challengeRecordVersion1 = 1
	maxConsumeRetries       = 4
)

var errChallengeRecord = errors.New("invalid 2fa challenge record")

// TwoFACodeStore is a Redis-backed store.TwoFACodeStore. Challenges
// expire after the configured TTL; zero keeps them until removed.
type TwoFACodeStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewTwoFACodeStore returns a store writing keys under prefix
// (default "a2f").
func NewTwoFACodeStore(client redis.UniversalClient, prefix string, ttl time.Duration) *TwoFACodeStore {
	if prefix == "" {
		prefix = "a2f"
	}
	return &TwoFACodeStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *TwoFACodeStore) key(email credential.Email) string {
	return s.prefix + ":" + email.String()
}

func (s *TwoFACodeStore) AddCode(ctx context.Context, email credential.Email, id credential.LoginAttemptID, code credential.TwoFACode) error {
	encoded, err := encodeChallenge(store.Challenge{LoginAttemptID: id, Code: code})
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(email), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return nil
}

func (s *TwoFACodeStore) GetCode(ctx context.Context, email credential.Email) (store.Challenge, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.Challenge{}, store.ErrCodeNotFound
		}
		return store.Challenge{}, fmt.Errorf("%w: %v", store.ErrBackend, err)
	}

	c, err := decodeChallenge(data)
	if err != nil {
		return store.Challenge{}, fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return c, nil
}

func (s *TwoFACodeStore) RemoveCode(ctx context.Context, email credential.Email) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return nil
}

// ConsumeCode deletes the challenge for email if it still carries id.
func (s *TwoFACodeStore) ConsumeCode(ctx context.Context, email credential.Email, id credential.LoginAttemptID) (bool, error) {
	key := s.key(email)

	for i := 0; i < maxConsumeRetries; i++ {
		var consumed bool
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			c, err := decodeChallenge(data)
			if err != nil {
				return err
			}
			if c.LoginAttemptID != id {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err == nil {
				consumed = true
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", store.ErrBackend, err)
		}
		return consumed, nil
	}

	// Lost every race: someone else replaced or consumed the challenge.
	return false, nil
}

func encodeChallenge(c store.Challenge) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)

	for _, field := range []string{c.LoginAttemptID.String(), c.Code.String()} {
		if len(field) > 255 {
			return nil, errChallengeRecord
		}
		buf.WriteByte(byte(len(field)))
		buf.WriteString(field)
	}
	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (store.Challenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return store.Challenge{}, err
	}
	if version != challengeRecordVersion1 {
		return store.Challenge{}, errChallengeRecord
	}

	var fields [2]string
	for i := range fields {
		var n uint8
		if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
			return store.Challenge{}, err
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return store.Challenge{}, err
		}
		fields[i] = string(raw)
	}
	if reader.Len() != 0 {
		return store.Challenge{}, errChallengeRecord
	}

	id, err := credential.ParseLoginAttemptID(fields[0])
	if err != nil {
		return store.Challenge{}, err
	}
	code, err := credential.ParseTwoFACode(fields[1])
	if err != nil {
		return store.Challenge{}, err
	}
	return store.Challenge{LoginAttemptID: id, Code: code}, nil
}
