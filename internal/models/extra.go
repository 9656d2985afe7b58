package models

import (
	"github.com/goccy/go-json"
)

// Extra holds keys the typed model does not know about (e.g. flattenSeries,
// minimumItems, ttl). They are carried through merges untouched.
type Extra map[string]json.RawMessage

func keySet(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// splitExtra returns every top-level key of data that is not in known.
func splitExtra(data []byte, known map[string]struct{}) (Extra, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra Extra
	for k, v := range all {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(Extra)
		}
		extra[k] = v
	}
	return extra, nil
}

// joinObject re-opens an encoded object and adds forced keys and extra keys.
// Forced keys overwrite; extra keys never shadow a typed field.
func joinObject(encoded []byte, forced map[string]json.RawMessage, extra Extra, known map[string]struct{}) ([]byte, error) {
	if len(forced) == 0 && len(extra) == 0 {
		return encoded, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &all); err != nil {
		return nil, err
	}
	for k, v := range forced {
		all[k] = v
	}
	for k, v := range extra {
		if _, ok := known[k]; ok {
			continue
		}
		if _, taken := all[k]; !taken {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// Merge returns a new bag holding base's keys overlaid with o's keys.
func (e Extra) Merge(o Extra) Extra {
	if len(e) == 0 && len(o) == 0 {
		return nil
	}
	out := make(Extra, len(e)+len(o))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	for k, v := range o {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

var emptyArray = json.RawMessage(`[]`)
