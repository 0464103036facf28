package wirebincode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	m := Message{
		Ciphersuite: 2,
		Namespace:   "whatsapp-staging",
		Timestamp:   1710000000,
		Epoch:       7,
		Digest:      []byte{0xde, 0xad, 0xbe, 0xef},
	}

	got, err := Unmarshal(Marshal(m))
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestUnmarshalTruncatedInput(t *testing.T) {
	m := Message{Ciphersuite: 2, Namespace: "ns", Timestamp: 1, Epoch: 2, Digest: []byte{1, 2, 3}}
	b := Marshal(m)

	_, err := Unmarshal(b[:len(b)-1])
	assert.Error(t, err)
}
