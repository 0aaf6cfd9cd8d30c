// Package normalize turns decoded schema field lists into Records.
//
// Missing fields are not an error: player defaults to "" and the numeric
// fields default to "0". Only a structurally broken field list fails, with a
// *MalformedRecordError.
package normalize

import (
	"fmt"

	"github.com/okian/scorestream/internal/domain/model"
)

// Recognized field names.
const (
	FieldPlayer   = "player"
	FieldScore    = "score"
	FieldPlayTime = "playTime"
)

const zero = "0"

// Record maps a field list onto a Record. Unrecognized names are ignored;
// when a name repeats, the last occurrence wins.
func Record(fields []model.Field) (model.Record, error) {
	rec := model.Record{Score: zero, PlayTime: zero}
	for i, f := range fields {
		if f.Name == "" {
			return model.Record{}, malformed(i, f.Name, "empty field name")
		}
		if !f.Value.IsSet() {
			return model.Record{}, malformed(i, f.Name, "missing value")
		}
		switch f.Name {
		case FieldPlayer:
			p, err := playerString(f.Value.Scalar())
			if err != nil {
				return model.Record{}, malformedErr(i, f.Name, err)
			}
			rec.Player = p
		case FieldScore:
			s, err := canonicalUint(f.Value.Scalar())
			if err != nil {
				return model.Record{}, malformedErr(i, f.Name, err)
			}
			rec.Score = s
		case FieldPlayTime:
			s, err := canonicalUint(f.Value.Scalar())
			if err != nil {
				return model.Record{}, malformedErr(i, f.Name, err)
			}
			rec.PlayTime = s
		}
	}
	return rec, nil
}

// Records normalizes a batch. It is all-or-nothing: the first malformed list
// aborts the batch and nothing is returned.
func Records(lists [][]model.Field) ([]model.Record, error) {
	out := make([]model.Record, 0, len(lists))
	for i, fields := range lists {
		rec, err := Record(fields)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func canonicalUint(v any) (string, error) {
	n, err := model.ToUint(v)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

func playerString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("unsupported player type %T", v)
	}
}
