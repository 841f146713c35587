package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"agora/internal/process/models"
	"agora/pkg/domain"
)

// RecordError reports one record that was skipped.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// Result is a converted collection. Processes keep source order; failed
// records are listed in Errors and left out.
type Result struct {
	Kind      domain.ProcessKind
	Processes []models.NormalizedProcess
	Errors    []RecordError
}

type identified interface {
	RecordID() string
}

// Batch converts every record, skipping the ones that fail.
func Batch[R any](kind domain.ProcessKind, records []R, convert func(R) (models.NormalizedProcess, error)) Result {
	res := Result{Kind: kind, Processes: make([]models.NormalizedProcess, 0, len(records))}
	for i, r := range records {
		p, err := convert(r)
		if err != nil {
			recErr := RecordError{Index: i, Err: err}
			if rec, ok := any(r).(identified); ok {
				recErr.ID = rec.RecordID()
			}
			res.Errors = append(res.Errors, recErr)
			continue
		}
		res.Processes = append(res.Processes, p)
	}
	return res
}

// Decode converts raw JSON records of kind. A record that does not decode
// is reported like any other malformed record; the rest of the collection
// is still converted.
func Decode(kind domain.ProcessKind, raw []json.RawMessage) (Result, error) {
	switch kind {
	case domain.KindConsultation:
		return decodeAll(kind, raw, FromConsultation), nil
	case domain.KindLegislativeConsultation:
		return decodeAll(kind, raw, FromLegislativeConsultation), nil
	case domain.KindPetition:
		return decodeAll(kind, raw, FromPetition), nil
	case domain.KindVote:
		return decodeAll(kind, raw, FromVote), nil
	case domain.KindAssembly:
		return decodeAll(kind, raw, FromAssembly), nil
	case domain.KindConference:
		return decodeAll(kind, raw, FromConference), nil
	case domain.KindSignalement:
		return decodeAll(kind, raw, FromSignalement), nil
	case domain.KindYouthPoll:
		return decodeAll(kind, raw, FromYouthPoll), nil
	default:
		return Result{}, fmt.Errorf("unknown process kind %q", kind)
	}
}

func decodeAll[R any](kind domain.ProcessKind, raw []json.RawMessage, convert func(R) (models.NormalizedProcess, error)) Result {
	res := Result{Kind: kind, Processes: make([]models.NormalizedProcess, 0, len(raw))}
	for i, msg := range raw {
		var rec R
		if err := json.Unmarshal(msg, &rec); err != nil {
			res.Errors = append(res.Errors, RecordError{Index: i, ID: rawID(msg), Err: fmt.Errorf("%w: %v", ErrMalformedEntity, err)})
			continue
		}
		p, err := convert(rec)
		if err != nil {
			res.Errors = append(res.Errors, RecordError{Index: i, ID: rawID(msg), Err: err})
			continue
		}
		res.Processes = append(res.Processes, p)
	}
	return res
}

// rawID reads the "id" member of a record that failed to decode as a whole.
// Numeric ids are returned as written; anything unreadable gives "".
func rawID(msg json.RawMessage) string {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(msg, &head); err != nil || len(head.ID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(head.ID, &s); err == nil {
		return s
	}
	if tok := strings.TrimSpace(string(head.ID)); tok != "null" && !strings.ContainsAny(tok, "{[") {
		return tok
	}
	return ""
}
