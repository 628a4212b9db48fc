package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollegeKey(t *testing.T) {
	assert.Equal(t, "anna univ", CollegeKey("  Anna Univ "))
	assert.Equal(t, "anna univ", CollegeKey("anna univ"))
	assert.Equal(t, "", CollegeKey("   "))
}

func TestCollegeKeyIdempotent(t *testing.T) {
	inputs := []string{"  MIT ", "Anna Univ", "psg TECH\t", ""}
	for _, in := range inputs {
		once := CollegeKey(in)
		assert.Equal(t, once, CollegeKey(once), "CollegeKey must be idempotent for %q", in)
	}
}

func TestTransactionKey(t *testing.T) {
	assert.Equal(t, "abc123", TransactionKey("ABC-123"))
	assert.Equal(t, "abc123", TransactionKey("abc123"))
	assert.Equal(t, "abc123", TransactionKey(" a b c 1 2 3 "))
	assert.Equal(t, "", TransactionKey("---"))
}

func TestTransactionKeyIdempotent(t *testing.T) {
	inputs := []string{"ABC-123", "txn 0099", "UPI/2024/xyz", ""}
	for _, in := range inputs {
		once := TransactionKey(in)
		assert.Equal(t, once, TransactionKey(once), "TransactionKey must be idempotent for %q", in)
	}
}

func TestHasSpecialCharacters(t *testing.T) {
	assert.True(t, HasSpecialCharacters("ABC-123"))
	assert.True(t, HasSpecialCharacters("abc 123"))
	assert.False(t, HasSpecialCharacters("abc123"))
	assert.False(t, HasSpecialCharacters(""))
}
