package logparser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLineMinimalValid(t *testing.T) {
	line := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET /a HTTP/1.0" 200 2326 "-" "UA/1.0"`

	entry, err := ParseLine(line)
	require.NoError(t, err)

	require.Equal(t, int64(971211336), entry.Timestamp)
	require.Equal(t, "GET", entry.Request.Method)
	require.Equal(t, "/a", entry.Request.URL)
	require.EqualValues(t, 200, entry.Request.StatusCode)
	require.Equal(t, "UA/1.0", entry.User.Useragent.Value)
	require.Nil(t, entry.Referrer)
}

func TestParseLineWithReferrer(t *testing.T) {
	line := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET /a HTTP/1.0" 200 2326 "http://r" "UA/1.0"`

	entry, err := ParseLine(line)
	require.NoError(t, err)
	require.NotNil(t, entry.Referrer)
	require.Equal(t, "http://r", entry.Referrer.URL)
}

func TestParseLineHashDeterminism(t *testing.T) {
	line1 := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET /a HTTP/1.0" 200 2326 "-" "UA/1.0"`
	line2 := `127.0.0.1 - - [11/Oct/2000:10:00:00 -0700] "POST /b HTTP/1.0" 404 0 "-" "UA/1.0"`

	e1, err := ParseLine(line1)
	require.NoError(t, err)
	e2, err := ParseLine(line2)
	require.NoError(t, err)

	require.Equal(t, e1.User.Hash, e2.User.Hash, "same (ip, useragent) must hash identically")
}

func TestParseLineInvalidIP(t *testing.T) {
	line := `not-an-ip - - [10/Oct/2000:13:55:36 -0700] "GET /a HTTP/1.0" 200 2326 "-" "UA/1.0"`
	_, err := ParseLine(line)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, line, perr.Line)
}

func TestParseLineInvalidDate(t *testing.T) {
	line := `127.0.0.1 - - [not-a-date] "GET /a HTTP/1.0" 200 2326 "-" "UA/1.0"`
	_, err := ParseLine(line)
	require.Error(t, err)
}

func TestParseLineMalformed(t *testing.T) {
	_, err := ParseLine("this is not a log line at all")
	require.Error(t, err)
}

func TestParseLineIPv6(t *testing.T) {
	line := `::1 - - [10/Oct/2000:13:55:36 -0700] "GET /a HTTP/1.0" 200 2326 "-" "UA/1.0"`
	_, err := ParseLine(line)
	require.NoError(t, err)
}
