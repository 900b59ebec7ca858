package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// FlexNumber holds a course attribute that authors store either as a number or as
// text ("7", "4.5", "12 годин"). The zero value means the field is absent or null.
type FlexNumber struct {
	raw      string
	num      float64
	isNum    bool
	isString bool
	set      bool
}

var leadingFloat = regexp.MustCompile(`^\s*[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?`)

func Number(v float64) FlexNumber {
	return FlexNumber{raw: strconv.FormatFloat(v, 'f', -1, 64), num: v, isNum: true, set: true}
}

func NumberString(s string) FlexNumber {
	n := FlexNumber{raw: s, isString: true, set: true}
	if m := leadingFloat.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(m), 64); err == nil {
			n.num, n.isNum = v, true
		}
	}
	return n
}

// Float returns the numeric value, accepting numeric prefixes of strings.
func (n FlexNumber) Float() (float64, bool) {
	return n.num, n.isNum
}

func (n FlexNumber) Present() bool { return n.set }

func (n FlexNumber) IsString() bool { return n.isString }

func (n FlexNumber) Raw() string { return n.raw }

func (n FlexNumber) String() string {
	if !n.set {
		return ""
	}
	return n.raw
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	switch {
	case !n.set:
		return []byte("null"), nil
	case n.isString:
		return json.Marshal(n.raw)
	default:
		return json.Marshal(n.num)
	}
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null" || s == "":
		*n = FlexNumber{}
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*n = NumberString(str)
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("flex number: %w", err)
		}
		*n = Number(v)
	}
	return nil
}

func (n FlexNumber) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case !n.set:
		return bsontype.Null, nil, nil
	case n.isString:
		return bson.MarshalValue(n.raw)
	default:
		return bson.MarshalValue(n.num)
	}
}

func (n *FlexNumber) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*n = FlexNumber{}
	case bsontype.Double:
		*n = Number(v.Double())
	case bsontype.Int32:
		*n = Number(float64(v.Int32()))
	case bsontype.Int64:
		*n = Number(float64(v.Int64()))
	case bsontype.String:
		*n = NumberString(v.StringValue())
	default:
		return fmt.Errorf("flex number: unsupported bson type %s", t)
	}
	return nil
}
