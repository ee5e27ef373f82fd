package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	for _, input := range []string{"2024-02-01", "02/01/2024", "02/01/24", " 2024-02-01 ", "2024-02-01T23:30:00+05:00"} {
		got, err := ParseDate(input)
		require.NoError(t, err, input)
		assert.True(t, got.Equal(want), "%s parsed as %s", input, got)
	}

	for _, input := range []string{"", "2024-13-01", "1 Feb 2024", "2024/02/01"} {
		_, err := ParseDate(input)
		assert.Error(t, err, input)
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	late := time.Date(2024, time.January, 10, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), Day(late))
}

func TestAsID(t *testing.T) {
	tests := []struct {
		raw  any
		want uint
		ok   bool
	}{
		{float64(3), 3, true},
		{"12", 12, true},
		{json.Number("7"), 7, true},
		{5, 5, true},
		{float64(1.5), 0, false},
		{float64(0), 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tc := range tests {
		got, err := asID(tc.raw)
		if tc.ok {
			require.NoError(t, err, "%v", tc.raw)
			assert.Equal(t, tc.want, got)
		} else {
			assert.Error(t, err, "%v", tc.raw)
		}
	}
}

func TestAsIDList(t *testing.T) {
	ids, err := asIDList([]any{float64(2), "3", float64(2)})
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3}, ids, "duplicates collapse")

	ids, err = asIDList(float64(4))
	require.NoError(t, err)
	assert.Equal(t, []uint{4}, ids)

	ids, err = asIDList(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = asIDList([]any{"x"})
	assert.Error(t, err)
}

func TestAsString(t *testing.T) {
	s, err := asString("  Emma  ", 10)
	require.NoError(t, err)
	assert.Equal(t, "Emma", s)

	s, err = asString(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = asString(42.0, 10)
	assert.Error(t, err)

	_, err = asString("ééééé", 4)
	assert.EqualError(t, err, "Ensure this value has at most 4 characters (it has 5).")
}

func TestFieldErrorsKeepFirstMessagePerField(t *testing.T) {
	var errs fieldErrors
	errs.add("title", "first")
	errs.add("title", "second")
	errs.add("isbn", "missing")

	err := errs.asError("book")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldError{{"isbn", "missing"}, {"title", "first"}}, verr.Fields)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid book: isbn: missing; title: first", err.Error())

	assert.NoError(t, fieldErrors(nil).asError("book"))
}

func TestValidISBN(t *testing.T) {
	valid := []string{"9780261102217", "978-0-14-143958-7", "0-306-40615-2", "080442957X", "0 8044 2957 X"}
	for _, isbn := range valid {
		assert.True(t, validISBN(isbn), isbn)
	}
	invalid := []string{"9780261102218", "0-306-40615-3", "12345", "97802611022AB", "X804429570"}
	for _, isbn := range invalid {
		assert.False(t, validISBN(isbn), isbn)
	}
}
