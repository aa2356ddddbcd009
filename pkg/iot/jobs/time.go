package jobs

import (
	"encoding/json"
	"math"
	"time"
)

// Time marshals as seconds since the epoch with a fractional part, the way
// the Jobs service represents timestamps. An IEEE 754 double keeps roughly
// 100 ns of precision at current epochs, so nanosecond-stamped values
// round-trip to that granularity.
type Time struct {
	time.Time
}

// NewTime wraps t for wire serialisation.
func NewTime(t time.Time) *Time {
	return &Time{Time: t}
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	sec := float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
	return json.Marshal(sec)
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var sec float64
	if err := json.Unmarshal(data, &sec); err != nil {
		return err
	}
	whole, frac := math.Modf(sec)
	t.Time = time.Unix(int64(whole), int64(math.Round(frac*float64(time.Second)))).UTC()
	return nil
}
