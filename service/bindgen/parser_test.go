package bindgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseHeader verifies prototype extraction from a compiler-emitted
// header, including the linkage wrapper and preprocessor noise.
func TestParseHeader(t *testing.T) {
	header := `
#ifndef SIMPLE_KERNEL_H
#define SIMPLE_KERNEL_H
#include <stdint.h>
#ifdef __cplusplus
extern "C" {
#endif
    extern void simple(float * vin, float * vout, int32_t count);
    extern int32_t reduce(const float * vin, int32_t count);
    extern void touch(void * data);
#ifdef __cplusplus
}
#endif
#endif
`
	declarations, err := Parse([]byte(header))
	require.NoError(t, err)
	require.EqualValues(t, 3, len(declarations))

	simple := declarations[0]
	assert.EqualValues(t, "simple", simple.Name)
	assert.EqualValues(t, "void", simple.Result)
	require.EqualValues(t, 3, len(simple.Params))
	assert.EqualValues(t, Param{Type: "float *", Name: "vin"}, simple.Params[0])
	assert.EqualValues(t, Param{Type: "float *", Name: "vout"}, simple.Params[1])
	assert.EqualValues(t, Param{Type: "int32_t", Name: "count"}, simple.Params[2])

	reduce := declarations[1]
	assert.EqualValues(t, "reduce", reduce.Name)
	assert.EqualValues(t, "int32_t", reduce.Result)
	assert.EqualValues(t, Param{Type: "const float *", Name: "vin"}, reduce.Params[0])

	touch := declarations[2]
	assert.EqualValues(t, Param{Type: "void *", Name: "data"}, touch.Params[0])
}

// TestParseNoArgPrototype verifies empty and void parameter lists.
func TestParseNoArgPrototype(t *testing.T) {
	declarations, err := Parse([]byte(`extern void tick();`))
	require.NoError(t, err)
	require.EqualValues(t, 1, len(declarations))
	assert.Empty(t, declarations[0].Params)

	declarations, err = Parse([]byte(`extern void tock(void);`))
	require.NoError(t, err)
	require.EqualValues(t, 1, len(declarations))
	require.EqualValues(t, 1, len(declarations[0].Params))
	assert.EqualValues(t, "void", declarations[0].Params[0].Type)
}

// TestParseMalformedPrototype verifies parse failures carry the offending
// prototype.
func TestParseMalformedPrototype(t *testing.T) {
	_, err := Parse([]byte(`extern void broken(float;`))
	assert.Error(t, err)
}
