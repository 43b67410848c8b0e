package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatements_Order(t *testing.T) {
	stmts := NewRunner().Statements()
	assert.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS validation_runs")
	assert.Contains(t, stmts[1], "REFERENCES validation_runs(id)")
	for _, s := range stmts {
		assert.True(t, strings.Contains(s, "IF NOT EXISTS"), "migrations must be re-runnable")
	}
	assert.Equal(t, "1.0.0", NewRunner().Version())
}
