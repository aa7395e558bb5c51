package models

// Audit event kinds recorded in the per-file event chain.
const (
	EventUpload         = "file_uploaded"
	EventAccessGranted  = "authorized_access"
	EventAccessDenied   = "unauthorized_access_attempt"
	EventDecryptFailure = "decryption_failed"
)

// AccessEvent is one audit record in a file's hash-chained event log.
// Events are append-only; each event's hash covers the previous event's
// hash, so the log is tamper-evident independently of the core chain.
type AccessEvent struct {
	// ID is a random identifier assigned at append time.
	ID string `json:"id"`
	// FileID names the event chain this record belongs to.
	FileID string `json:"file_id"`
	// Kind is one of the Event* constants.
	Kind string `json:"kind"`
	// Actor is the identity that triggered the event.
	Actor string `json:"actor"`
	// Timestamp is the event time, unix seconds.
	Timestamp int64 `json:"timestamp"`
	// Granted reports the outcome of the access decision.
	Granted bool `json:"granted"`
	// Reason optionally explains a denial or failure.
	Reason string `json:"reason,omitempty"`
	// PrevHash links to the previous event in this file's chain,
	// "0" for the first event.
	PrevHash string `json:"prev_hash"`
	// Hash is the digest over the event's canonical serialization,
	// excluding this field.
	Hash string `json:"hash"`
}
