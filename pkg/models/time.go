package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// EpochMillis is a timestamp in milliseconds since the Unix epoch.
//
// Worker builds have written begin_timestamp/end_timestamp both as raw
// millisecond integers and as BSON datetimes. Reads accept either encoding
// and normalize to milliseconds; writes always use the integer encoding.
type EpochMillis struct {
	Millis int64
	Valid  bool
}

// NewEpochMillis returns a valid timestamp for the given millisecond value.
func NewEpochMillis(millis int64) EpochMillis {
	return EpochMillis{Millis: millis, Valid: true}
}

// NowMillis returns the current time in milliseconds since the epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Time converts to a time.Time. Only meaningful when Valid.
func (e EpochMillis) Time() time.Time {
	return time.UnixMilli(e.Millis).UTC()
}

// IsZero implements bsoncodec.Zeroer so absent timestamps are omitted from
// inserted documents rather than written as zero values.
func (e EpochMillis) IsZero() bool {
	return !e.Valid
}

// MarshalBSONValue writes the canonical millisecond-integer encoding.
func (e EpochMillis) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !e.Valid {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(e.Millis)
}

// UnmarshalBSONValue accepts int32/int64/double millisecond values and BSON
// datetimes. Anything else is a protocol error.
func (e *EpochMillis) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int64:
		e.Millis, e.Valid = rv.Int64(), true
	case bsontype.Int32:
		e.Millis, e.Valid = int64(rv.Int32()), true
	case bsontype.Double:
		e.Millis, e.Valid = int64(rv.Double()), true
	case bsontype.DateTime:
		e.Millis, e.Valid = rv.DateTime(), true
	case bsontype.Null, bsontype.Undefined:
		*e = EpochMillis{}
	default:
		return fmt.Errorf("cannot decode %s as an epoch-millisecond timestamp", t)
	}
	return nil
}
