package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetSecret(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	got, err := GetSecret("Enter API key", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), got)
	assert.Equal(t, "Enter API key: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetSecret("Enter password", &out)
	assert.Error(t, err)
}

func TestGetFields(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.Fields
		wantErr  bool
	}{
		{
			name:  "ordered, stop on empty line",
			input: "role=user\nemail=a@b.c, d@e.f\n\nignored=1\n",
			expected: models.Fields{
				{Name: "role", Values: []string{"user"}},
				{Name: "email", Values: []string{"a@b.c", "d@e.f"}},
			},
		},
		{
			name:     "CRLF and empty values",
			input:    "tags=\r\n\r\n",
			expected: models.Fields{{Name: "tags", Values: []string{}}},
		},
		{
			name:     "immediate blank line",
			input:    "\n",
			expected: models.Fields{},
		},
		{
			name:     "EOF without trailing blank line",
			input:    "a=1",
			expected: models.Fields{{Name: "a", Values: []string{"1"}}},
		},
		{name: "missing equals", input: "novalue\n\n", wantErr: true},
		{name: "empty name", input: "=x\n\n", wantErr: true},
		{name: "duplicate", input: "a=1\na=2\n\n", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetFields(rdr(tc.input), &out)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
