package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/octosql"
)

func TestLayout(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "%Y-%m-%dT%H:%M:%SZ", want: "2006-01-02T15:04:05Z"},
		{format: "%FT%TZ", want: "2006-01-02T15:04:05Z"},
		{format: "%d %b %Y", want: "02 Jan 2006"},
		{format: "100%%", wantErr: true},
		{format: "%Y%%", want: "2006%"},
		{format: "%Q", wantErr: true},
		{format: "%", wantErr: true},
		{format: "%B %d", want: "January 02"},
		{format: "%a, %d %b", want: "Mon, 02 Jan"},
		{format: "%H:%M %p", want: "15:04 PM"},
		{format: "Jan %d", wantErr: true},
		{format: "Mon %Y", wantErr: true},
		{format: "%H PM", wantErr: true},
		{format: "%Y MST", wantErr: true},
		{format: "%buary", wantErr: true},
		{format: "%aday", wantErr: true},
		{format: "_%e", wantErr: true},
		{format: "P%Z", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := Layout(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser(t *testing.T) {
	parse, err := NewParser(Options{Format: "%Y-%m-%dT%H:%M:%SZ", Strict: true})
	require.NoError(t, err)

	value, err := parse("2001-06-02T10:11:12Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2001, 6, 2, 10, 11, 12, 0, time.UTC), value.Time)

	_, err = parse("yesterday")
	assert.True(t, octosql.IsParseError(err))

	lenient, err := NewParser(Options{Format: "%Y-%m-%d"})
	require.NoError(t, err)
	value, err = lenient("not a date")
	require.NoError(t, err)
	assert.True(t, value.IsNull())
}

func TestParserAmbiguous(t *testing.T) {
	// 2021-11-07 01:30 happens twice in New York.
	const wallClock = "2021-11-07 01:30"
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skip("time zone database unavailable")
	}

	tests := []struct {
		policy  AmbiguousPolicy
		wantErr bool
		wantUTC string
		null    bool
	}{
		{policy: AmbiguousRaise, wantErr: true},
		{policy: AmbiguousEarliest, wantUTC: "2021-11-07T05:30:00Z"},
		{policy: AmbiguousLatest, wantUTC: "2021-11-07T06:30:00Z"},
		{policy: AmbiguousNull, null: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			parse, err := NewParser(Options{Format: "%Y-%m-%d %H:%M", Strict: true, Ambiguous: tt.policy, Location: "America/New_York"})
			require.NoError(t, err)
			value, err := parse(wallClock)
			if tt.wantErr {
				assert.True(t, octosql.IsParseError(err))
				return
			}
			require.NoError(t, err)
			if tt.null {
				assert.True(t, value.IsNull())
				return
			}
			assert.Equal(t, tt.wantUTC, value.Time.UTC().Format(time.RFC3339))
		})
	}

	parse, err := NewParser(Options{Format: "%Y-%m-%d %H:%M", Strict: true, Location: "America/New_York"})
	require.NoError(t, err)
	value, err := parse("2021-07-01 12:00")
	require.NoError(t, err)
	assert.Equal(t, 2021, value.Time.Year())
}

func TestNewParserRejectsInvalidOptions(t *testing.T) {
	_, err := NewParser(Options{Format: "%Q"})
	assert.True(t, octosql.IsParseError(err))
	_, err = NewParser(Options{Format: "%Y", Ambiguous: "sometimes"})
	assert.True(t, octosql.IsParseError(err))
}
