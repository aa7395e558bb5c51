package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dstepanenko/chainvault/internal/models"
)

// Canonical serialization rules: a fixed field set that excludes the hash
// being computed, JSON keys in lexicographic order, authorized_users sorted,
// integer timestamps. The struct fields below are declared in tag order, so
// encoding/json emits a byte-stable document and the digest is reproducible
// across implementations.

type canonicalMetadata struct {
	FileHash     string `json:"file_hash"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	UploadTime   int64  `json:"upload_time"`
}

type canonicalBlock struct {
	AuthorizedUsers []string           `json:"authorized_users"`
	Data            string             `json:"data,omitempty"`
	FileID          string             `json:"file_id"`
	Index           uint64             `json:"index"`
	Metadata        *canonicalMetadata `json:"metadata,omitempty"`
	Owner           string             `json:"owner"`
	PrevHash        string             `json:"prev_hash"`
	Timestamp       int64              `json:"timestamp"`
}

type canonicalEvent struct {
	Actor     string `json:"actor"`
	FileID    string `json:"file_id"`
	Granted   bool   `json:"granted"`
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	PrevHash  string `json:"prev_hash"`
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// BlockHash computes the digest over the block's canonical serialization,
// excluding the block_hash field itself and the access-log view.
func BlockHash(b *models.Block) (string, error) {
	users := append([]string(nil), b.AuthorizedUsers...)
	sort.Strings(users)
	if users == nil {
		users = []string{}
	}

	c := canonicalBlock{
		AuthorizedUsers: users,
		Data:            b.Data,
		FileID:          b.FileID,
		Index:           b.Index,
		Owner:           b.Owner,
		PrevHash:        b.PrevHash,
		Timestamp:       b.Timestamp,
	}
	if b.Metadata != nil {
		c.Metadata = &canonicalMetadata{
			FileHash:     b.Metadata.FileHash,
			OriginalName: b.Metadata.OriginalName,
			Size:         b.Metadata.Size,
			UploadTime:   b.Metadata.UploadTime,
		}
	}

	return hashJSON(c)
}

// EventHash computes the digest over an access event's canonical
// serialization, excluding the hash field itself.
func EventHash(e *models.AccessEvent) (string, error) {
	c := canonicalEvent{
		Actor:     e.Actor,
		FileID:    e.FileID,
		Granted:   e.Granted,
		ID:        e.ID,
		Kind:      e.Kind,
		PrevHash:  e.PrevHash,
		Reason:    e.Reason,
		Timestamp: e.Timestamp,
	}
	return hashJSON(c)
}

func hashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
