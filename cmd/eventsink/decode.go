package main

import (
	"errors"
	"fmt"

	"github.com/gourdian25/eventsink"
	"github.com/valyala/fastjson"
)

var parserPool fastjson.ParserPool

// decodeEvent parses one input line. Two shapes are accepted:
//
//	{"id": 1, "fields": {"Name": "x", "Count": 2}}
//	{"id": 1, "names": ["Name", "Count"], "values": ["x", 2]}
//
// Object fields keep their document order.
func decodeEvent(line []byte) (eventsink.Event, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(line)
	if err != nil {
		return eventsink.Event{}, fmt.Errorf("malformed event: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return eventsink.Event{}, errors.New("malformed event: not an object")
	}

	idVal := v.Get("id")
	if idVal == nil {
		return eventsink.Event{}, errors.New("malformed event: missing id")
	}
	id, err := idVal.Int()
	if err != nil {
		return eventsink.Event{}, fmt.Errorf("malformed event id: %w", err)
	}

	var (
		names []string
		raw   []*fastjson.Value
	)
	if fields := v.GetObject("fields"); fields != nil {
		fields.Visit(func(key []byte, fv *fastjson.Value) {
			names = append(names, string(key))
			raw = append(raw, fv)
		})
	} else {
		for _, n := range v.GetArray("names") {
			s, err := n.StringBytes()
			if err != nil {
				return eventsink.Event{}, fmt.Errorf("malformed field name: %w", err)
			}
			names = append(names, string(s))
		}
		raw = v.GetArray("values")
	}

	values := make([]interface{}, len(raw))
	for i, fv := range raw {
		converted, err := plainValue(fv)
		if err != nil {
			return eventsink.Event{}, err
		}
		values[i] = converted
	}
	return eventsink.NewEvent(id, names, values)
}

// plainValue maps a JSON value onto the supported field kinds. Integral numbers
// become int64, other numbers float64.
func plainValue(v *fastjson.Value) (interface{}, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes()), nil
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	default:
		return nil, fmt.Errorf("%w: JSON %s", eventsink.ErrUnsupportedValue, v.Type())
	}
}
