package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTables(t *testing.T) {
	require.Equal(t, []string{"scans", "scan_items"}, ParseTables(" scans, ,scan_items,drop table;,1bad"))
	require.Len(t, ParseTables(DefaultTables), 6)
}

func TestTruncateStatement(t *testing.T) {
	require.Equal(t,
		`TRUNCATE TABLE "scan_items", "scans" RESTART IDENTITY CASCADE`,
		TruncateStatement([]string{"scan_items", "scans"}))
}
