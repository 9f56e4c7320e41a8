package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleParserBasic(t *testing.T) {
	input := `
# a comment
r 0x1000
w 4096

R 0X2000 extra ignored fields
`
	records, errs, err := SimpleParser{}.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, records, 3)
	assert.Equal(t, Record{Op: OpRead, Address: 0x1000}, records[0])
	assert.Equal(t, Record{Op: OpWrite, Address: 4096}, records[1])
	assert.Equal(t, Record{Op: OpRead, Address: 0x2000}, records[2])
}

func TestSimpleParserSkipsBadLinesAndCountsThem(t *testing.T) {
	input := "r 0x1000\nbogus line\nx 0x2000\nw notanumber\nw 0x3000\n"
	records, errs, err := SimpleParser{}.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, errs, 3)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(0x1000), records[0].Address)
	assert.Equal(t, uint64(0x3000), records[1].Address)
}

func TestStructuredParserBasic(t *testing.T) {
	input := `{"accesses": [{"address": "0x1000", "type": "read"}, {"address": 4096, "type": "write"}]}`
	records, errs, err := StructuredParser{}.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, records, 2)
	assert.Equal(t, Record{Op: OpRead, Address: 0x1000}, records[0])
	assert.Equal(t, Record{Op: OpWrite, Address: 4096}, records[1])
}

func TestStructuredParserSkipsUnknownType(t *testing.T) {
	input := `{"accesses": [{"address": "0x1000", "type": "flush"}]}`
	records, errs, err := StructuredParser{}.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, errs, 1)
	assert.Empty(t, records)
}

func TestStructuredParserMalformedDocument(t *testing.T) {
	_, _, err := StructuredParser{}.Parse(strings.NewReader("not json"))
	require.Error(t, err)
}
