package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const signatureVersion = "v0"

// MaxTimestampSkew bounds how old a signed request may be before it is
// rejected as a possible replay.
const MaxTimestampSkew = 5 * time.Minute

var (
	// ErrInvalidSignature means the request signature did not match.
	ErrInvalidSignature = errors.New("invalid slack signature")
	// ErrStaleTimestamp means the request timestamp fell outside the skew window.
	ErrStaleTimestamp = errors.New("stale slack request timestamp")
)

// VerifySignature checks a Slack request signature (X-Slack-Signature header)
// against the signing secret. The timestamp is the X-Slack-Request-Timestamp
// header and body is the raw, unparsed request body.
func VerifySignature(signingSecret, timestamp, signature string, body []byte, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request timestamp: %w", err)
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > MaxTimestampSkew || age < -MaxTimestampSkew {
		return ErrStaleTimestamp
	}

	expected := ComputeSignature(signingSecret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// ComputeSignature produces the v0 HMAC-SHA256 signature for a request body.
func ComputeSignature(signingSecret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}
