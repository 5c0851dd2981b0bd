package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func render(t *testing.T, n Node) string {
	t.Helper()
	s, err := BuildSMILES(n)
	require.NoError(t, err)
	return s
}

func benzene() *Ring { return MustRing("c", 6, 1) }
