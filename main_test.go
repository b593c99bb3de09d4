package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestFilterStdin(t *testing.T) {
	var out bytes.Buffer
	input := "<h1><b>Title</b></h1>\n<p><b>body</b></p>\n"
	require.NoError(t, filterStdin(strings.NewReader(input), &out))
	assert.Equal(t, "<h1>Title</h1>\n<p><b>body</b></p>\n", out.String())
}

func TestFilterStdin_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, filterStdin(strings.NewReader(""), &out))
	assert.Equal(t, "", out.String())
}

func TestFilterStdin_ReadError(t *testing.T) {
	assert.Error(t, filterStdin(errReader{}, &bytes.Buffer{}))
}
