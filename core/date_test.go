package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "", want: Date{}},
		{in: "2024-02-29", want: NewDate(2024, time.February, 29)},
		{in: " 2024-02-29 ", want: NewDate(2024, time.February, 29)},
		{in: "2024-02-29T23:30:00+07:00", want: NewDate(2024, time.February, 29)},
		{in: "2023-02-29", wantErr: true},
		{in: "29/02/2024", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	type doc struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(doc{Date: NewDate(2024, time.March, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-05"}`, string(data))

	data, err = json.Marshal(doc{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":null}`, string(data))

	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-05"}`), &d))
	assert.Equal(t, "2024-03-05", d.Date.String())

	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &d))
	assert.True(t, d.Date.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &d))
}

func TestDate_Scan(t *testing.T) {
	want := NewDate(2024, time.March, 5)
	for _, src := range []interface{}{"2024-03-05", []byte("2024-03-05"), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)} {
		var d Date
		require.NoError(t, d.Scan(src))
		assert.True(t, d.Equal(want), "Scan(%v) = %s", src, d)
	}

	var d Date
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDate_LocaleString(t *testing.T) {
	assert.Equal(t, "5/3/2024", NewDate(2024, time.March, 5).LocaleString())
	assert.Equal(t, "31/12/2023", NewDate(2023, time.December, 31).LocaleString())
	assert.Equal(t, "", Date{}.LocaleString())
}
