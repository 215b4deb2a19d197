package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDecimals_CorruptValue_Errors(t *testing.T) {
	var a, b decimal.Decimal
	err := scanDecimals([]*decimal.Decimal{&a, &b}, []string{"1800", "not-a-number"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-number")
}

func TestListEmployeeSalaryProfiles_CorruptStoredAmount_Errors(t *testing.T) {
	// GIVEN: A salary row whose basic column holds a malformed amount
	// WHEN: Reading the profile back
	// THEN: The read fails rather than returning a plausible zero salary

	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.db.Exec(
		`INSERT INTO employees (emp_id, name, designation, basic, hra, other_allowances, created_at)
		 VALUES ('EMP001', 'Asha Rao', '', 'garbage', '20000', '5000', '2025-07-01T00:00:00Z')`)
	require.NoError(t, err)

	_, err = store.ListEmployeeSalaryProfiles(context.Background(), "EMP001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt stored decimal")
}
