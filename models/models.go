// Package models holds the normalized dimension and fact types the
// ingestion pipeline parses access-log lines into.
package models

// Request is the (method, url, status_code) dimension. The triple is
// the dimension's content key: two Requests with equal fields are the
// same row.
type Request struct {
	Method     string
	URL        string
	StatusCode int32
}

// Useragent is the user-agent string dimension.
type Useragent struct {
	Value string
}

// User is the pseudonymized visitor dimension: a hash derived from
// (ip, useragent) paired with the useragent that produced it. See
// HashIdentity for the derivation.
type User struct {
	Hash      int64
	Useragent Useragent
}

// Referrer is the referrer-url dimension. Absent when the raw log
// field is the literal "-".
type Referrer struct {
	URL string
}

// LogEntry is one normalized access-log row, ready for interning and
// insertion. Referrer is nil when the source line carried "-".
type LogEntry struct {
	Timestamp int64
	Request   Request
	User      User
	Referrer  *Referrer
}

// Fingerprint is the best-effort within-block dedup key described in
// spec.md §4.2: (timestamp, user hash, request). It is not a substitute
// for the database's UNIQUE constraint, only a way to avoid inserting
// obvious duplicates from a single block.
type Fingerprint struct {
	Timestamp int64
	UserHash  int64
	Request   Request
}

// Fingerprint returns the entry's within-block dedup key.
func (e LogEntry) Fingerprint() Fingerprint {
	return Fingerprint{
		Timestamp: e.Timestamp,
		UserHash:  e.User.Hash,
		Request:   e.Request,
	}
}
