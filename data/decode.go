package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseJSON decodes a single JSON document.  Objects become *Map values that
// keep the key order of the document, integers become Int and other numbers
// become Float.
func ParseJSON(r io.Reader) (Value, error) {
	var dec = json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("json: unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var m = NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				m.Set(keyTok.(string), val)
			}
			_, err = dec.Token()
			return m, err
		case '[':
			var list = List{}
			for dec.More() {
				val, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			_, err = dec.Token()
			return list, err
		}
		return nil, fmt.Errorf("json: unexpected delimiter %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		return Float(f), err
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	}
	return nil, fmt.Errorf("json: unexpected token %v", tok)
}

// MarshalJSON writes the map as a JSON object in key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.items[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v Undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (v Null) MarshalJSON() ([]byte, error)      { return []byte("null"), nil }

// ParseYAML decodes the first YAML document read from r.  Mappings keep their
// key order.  An empty input yields an empty map.
func ParseYAML(r io.Reader) (Value, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return NewMap(), nil
		}
		return nil, err
	}
	return decodeYAML(&doc)
}

func decodeYAML(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return decodeYAML(n.Content[0])
	case yaml.AliasNode:
		return decodeYAML(n.Alias)
	case yaml.MappingNode:
		var m = NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := decodeYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(n.Content[i].Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		var list = make(List, 0, len(n.Content))
		for _, item := range n.Content {
			val, err := decodeYAML(item)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return Null{}, nil
		case "!!bool":
			var b bool
			err := n.Decode(&b)
			return Bool(b), err
		case "!!int":
			var i int64
			err := n.Decode(&i)
			return Int(i), err
		case "!!float":
			var f float64
			err := n.Decode(&f)
			return Float(f), err
		}
		return String(n.Value), nil
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %v at line %d", n.Kind, n.Line)
}
