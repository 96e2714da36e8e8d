package simclient

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type methodCall struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName string   `xml:"methodName"`
	Params     []param  `xml:"params>param"`
}

type methodResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  []param  `xml:"params>param"`
	Fault   *param   `xml:"fault"`
}

type param struct {
	Value value `xml:"value"`
}

// value holds exactly one XML-RPC scalar or struct. An untyped value is a
// string carried in Text.
type value struct {
	String  *string    `xml:"string,omitempty"`
	Int     *string    `xml:"int,omitempty"`
	I4      *string    `xml:"i4,omitempty"`
	Boolean *string    `xml:"boolean,omitempty"`
	Double  *string    `xml:"double,omitempty"`
	Struct  *structVal `xml:"struct,omitempty"`
	Text    string     `xml:",chardata"`
}

type structVal struct {
	Members []member `xml:"member"`
}

type member struct {
	Name  string `xml:"name"`
	Value value  `xml:"value"`
}

func encodeValue(v any) (value, error) {
	switch t := v.(type) {
	case string:
		return value{String: &t}, nil
	case fmt.Stringer:
		s := t.String()
		return value{String: &s}, nil
	case int:
		s := strconv.Itoa(t)
		return value{Int: &s}, nil
	case bool:
		s := "0"
		if t {
			s = "1"
		}
		return value{Boolean: &s}, nil
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return value{Double: &s}, nil
	case map[string]any:
		st, err := encodeStruct(t)
		if err != nil {
			return value{}, err
		}
		return value{Struct: st}, nil
	}
	return value{}, fmt.Errorf("xml-rpc: unsupported parameter type %T", v)
}

// encodeStruct emits members in key order so requests are deterministic.
func encodeStruct(m map[string]any) (*structVal, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	st := &structVal{}
	for _, k := range keys {
		v, err := encodeValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", k, err)
		}
		st.Members = append(st.Members, member{Name: k, Value: v})
	}
	return st, nil
}

func decodeValue(v value) any {
	switch {
	case v.String != nil:
		return *v.String
	case v.Int != nil, v.I4 != nil:
		raw := v.Int
		if raw == nil {
			raw = v.I4
		}
		n, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			return *raw
		}
		return n
	case v.Boolean != nil:
		b := strings.TrimSpace(*v.Boolean)
		return b == "1" || strings.EqualFold(b, "true")
	case v.Double != nil:
		f, err := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64)
		if err != nil {
			return *v.Double
		}
		return f
	case v.Struct != nil:
		out := make(map[string]any, len(v.Struct.Members))
		for _, m := range v.Struct.Members {
			out[m.Name] = decodeValue(m.Value)
		}
		return out
	}
	return v.Text
}
