package eqn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every damage variant of a well-formed placeholder must repair back to a
// form the scanner classifies as well-formed, carrying the same number,
// eps flag, and comma flag.
func TestRepairRoundTrip(t *testing.T) {
	damaged := []string{
		"Eqn15.eps>>",
		"<<Eqn15.eps",
		"< <Eqn15.eps> >",
		"<<Eqn15.eps>>>",
		"<Eqn15.eps>",
		"Eqn15.eps",
	}

	for _, text := range damaged {
		t.Run(text, func(t *testing.T) {
			occs := ScanBlock(0, text)
			require.Len(t, occs, 1)
			require.False(t, occs[0].WellFormed)

			fixed, err := Repair(occs[0])
			require.NoError(t, err)

			rescanned := ScanBlock(0, fixed)
			require.Len(t, rescanned, 1)
			assert.True(t, rescanned[0].WellFormed)
			assert.Equal(t, "15", rescanned[0].Number)
			assert.True(t, rescanned[0].EPS)
			assert.False(t, rescanned[0].Comma)
		})
	}
}

func TestRepairPreservesComma(t *testing.T) {
	occs := ScanBlock(0, "Eqn3>>,")
	require.Len(t, occs, 1)

	fixed, err := Repair(occs[0])
	require.NoError(t, err)
	assert.Equal(t, "<<Eqn3>>,", fixed)

	rescanned := ScanBlock(0, fixed)
	require.Len(t, rescanned, 1)
	assert.True(t, rescanned[0].WellFormed)
	assert.True(t, rescanned[0].Comma)
}

func TestRepairPreservesZeroPadding(t *testing.T) {
	occs := ScanBlock(0, "Eqn007.eps>>")
	require.Len(t, occs, 1)

	fixed, err := Repair(occs[0])
	require.NoError(t, err)
	assert.Equal(t, "<<Eqn007.eps>>", fixed)
}

func TestRepairNeverInventsNumber(t *testing.T) {
	_, err := Repair(Occurrence{Raw: "<<Eqn>>"})
	assert.Error(t, err)

	_, err = RepairText("<<garbage>>")
	assert.Error(t, err)
}

func TestRepairText(t *testing.T) {
	fixed, err := RepairText("<Eqn42.EPS>,")
	require.NoError(t, err)
	assert.Equal(t, "<<Eqn42.eps>>,", fixed)
}
