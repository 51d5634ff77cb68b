package hover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Index_binaryRoundTrip(t *testing.T) {
	original := Index{
		"greet":    {DisplayName: "greet", Kind: KindFunction, Signature: "greet() -> waxbo", Docstring: "says hello"},
		"Dog":      {DisplayName: "Dog", Kind: KindClass, Signature: "Dog : Animal"},
		"Dog.bark": {DisplayName: "Dog.bark", Kind: KindMethod, Signature: "bark() -> waxbo", Docstring: "qeylo"},
	}

	data, err := original.MarshalBinary()
	require.NoError(t, err)

	decoded := Index{}
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, original, decoded)
}

func Test_Index_marshalIsDeterministic(t *testing.T) {
	idx := Index{
		"b": {DisplayName: "b", Kind: KindFunction},
		"a": {DisplayName: "a", Kind: KindFunction},
		"c": {DisplayName: "c", Kind: KindClass},
	}
	d1, err := idx.MarshalBinary()
	require.NoError(t, err)
	d2, err := idx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func Test_Index_emptyRoundTrip(t *testing.T) {
	data, err := Index{}.MarshalBinary()
	require.NoError(t, err)

	decoded := Index{}
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Empty(t, decoded)
}

func Test_Index_unmarshalRejectsTruncatedData(t *testing.T) {
	idx := Index{"greet": {DisplayName: "greet", Kind: KindFunction}}
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	decoded := Index{}
	assert.Error(t, decoded.UnmarshalBinary(data[:len(data)-3]))
}
