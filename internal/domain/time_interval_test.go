package domain

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeStamp_UnmarshalText(t *testing.T) {
	var ts TimeStamp
	require.NoError(t, ts.UnmarshalText([]byte("09:05")))
	assert.Equal(t, TimeStamp{Hour: 9, Minute: 5}, ts)
	assert.Equal(t, 545, ts.Minutes())
	assert.Equal(t, "09:05", ts.String())

	for _, bad := range []string{"", "9", "24:00", "12:60", "-1:00", "ab:cd"} {
		assert.ErrorIs(t, ts.UnmarshalText([]byte(bad)), ErrInvalidTimeStamp, bad)
	}
}

func TestNewTimeInterval(t *testing.T) {
	start, _ := NewTimeStamp(9, 0)
	end, _ := NewTimeStamp(10, 30)

	ti, err := NewTimeInterval(Wednesday, start, end, ParityOdd)
	require.NoError(t, err)
	assert.Equal(t, 90, ti.Length())

	_, err = NewTimeInterval(Wednesday, end, start, ParityBoth)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewTimeInterval(Wednesday, start, start, ParityBoth)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewTimeInterval(Day(0), start, end, ParityBoth)
	assert.ErrorIs(t, err, ErrInvalidDay)

	_, err = NewTimeInterval(Day(8), start, end, ParityBoth)
	assert.ErrorIs(t, err, ErrInvalidDay)

	_, err = NewTimeInterval(Monday, start, end, Parity(3))
	assert.ErrorIs(t, err, ErrInvalidParity)
}

func TestTimeInterval_Ordering(t *testing.T) {
	mk := func(day Day, sh, eh int) TimeInterval {
		start, _ := NewTimeStamp(sh, 0)
		end, _ := NewTimeStamp(eh, 0)
		return TimeInterval{Day: day, Start: start, End: end}
	}

	intervals := []TimeInterval{
		mk(Tuesday, 8, 9),
		mk(Monday, 10, 12),
		mk(Monday, 10, 11),
		mk(Monday, 8, 9),
	}
	slices.SortFunc(intervals, TimeInterval.Compare)

	assert.Equal(t, []TimeInterval{
		mk(Monday, 8, 9),
		mk(Monday, 10, 11),
		mk(Monday, 10, 12),
		mk(Tuesday, 8, 9),
	}, intervals)
	assert.Equal(t, 0, mk(Friday, 8, 9).Compare(mk(Friday, 8, 9)))
}

func TestParity(t *testing.T) {
	assert.True(t, ParityBoth.Compatible(ParityOdd))
	assert.True(t, ParityEven.Compatible(ParityBoth))
	assert.True(t, ParityOdd.Compatible(ParityOdd))
	assert.False(t, ParityOdd.Compatible(ParityEven))

	var p Parity
	require.NoError(t, p.UnmarshalText([]byte("even")))
	assert.Equal(t, ParityEven, p)
	require.NoError(t, p.UnmarshalText([]byte("")))
	assert.Equal(t, ParityBoth, p)
	assert.ErrorIs(t, p.UnmarshalText([]byte("weekly")), ErrInvalidParity)
}

func TestTimeInterval_JSON(t *testing.T) {
	start, _ := NewTimeStamp(14, 30)
	end, _ := NewTimeStamp(16, 0)
	ti := TimeInterval{Day: Thursday, Start: start, End: end, Parity: ParityEven}

	data, err := json.Marshal(ti)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":4,"start":"14:30","end":"16:00","parity":"even"}`, string(data))
}
