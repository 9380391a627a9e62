package feed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
)

// JSON kinds returned by Kind.
const (
	KindInvalid byte = 0
	KindObject  byte = '{'
	KindArray   byte = '['
	KindString  byte = '"'
	KindNull    byte = 'n'
	KindBool    byte = 'b'
	KindNumber  byte = '0'
)

// Kind reports the kind of the top-level JSON value in body.
func Kind(body []byte) byte {
	b := bytes.TrimSpace(body)
	if len(b) == 0 || !json.Valid(b) {
		return KindInvalid
	}
	switch b[0] {
	case '{', '[', '"', 'n':
		return b[0]
	case 't', 'f':
		return KindBool
	default:
		return KindNumber
	}
}

// Unexpected wraps domain.ErrUnexpectedPayload with an excerpt of body.
func Unexpected(source, why string, body []byte) error {
	excerpt := body
	if len(excerpt) > maxExcerptBytes {
		excerpt = excerpt[:maxExcerptBytes]
	}
	return fmt.Errorf("%s: %w: %s: %s", source, domain.ErrUnexpectedPayload, why, excerpt)
}

// DecodeItems decodes each element on its own, so one malformed item never
// fails the batch.
func DecodeItems[T any](raws []json.RawMessage) domain.Fetched[T] {
	out := domain.Fetched[T]{Items: make([]T, 0, len(raws))}
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			out.Undecodable++
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out
}
