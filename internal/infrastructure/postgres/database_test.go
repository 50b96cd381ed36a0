package postgres

import "testing"

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "placeholders kept",
			in:   "SELECT id FROM ofx_transactions WHERE fitid = $1 AND amount > $12",
			want: "SELECT id FROM ofx_transactions WHERE fitid = $1 AND amount > $12",
		},
		{
			name: "string literal",
			in:   "UPDATE ofx_transactions SET validation_status = 'VALIDATED' WHERE id = 4",
			want: "UPDATE ofx_transactions SET validation_status = '?' WHERE id = ?",
		},
		{
			name: "escaped quote",
			in:   "SELECT 'it''s' AS x",
			want: "SELECT '?' AS x",
		},
		{
			name: "decimal literal",
			in:   "SELECT * FROM realized_movements WHERE amount = 150.25",
			want: "SELECT * FROM realized_movements WHERE amount = ?",
		},
		{
			name: "digits inside identifiers",
			in:   "SELECT e2_valor FROM se2010",
			want: "SELECT e2_valor FROM se2010",
		},
		{
			name: "unterminated literal",
			in:   "SELECT 'abc",
			want: "SELECT '?'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeQuery(tt.in); got != tt.want {
				t.Errorf("sanitizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeQuery_Truncates(t *testing.T) {
	long := "SELECT "
	for len(long) < 400 {
		long += "column_name, "
	}

	got := sanitizeQuery(long)
	if len(got) != 256+len("...") {
		t.Errorf("len = %d, want %d", len(got), 259)
	}
}

func TestExtractSQLVerb(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"select 1", "SELECT"},
		{"\n\t\tINSERT INTO x", "INSERT"},
		{"UPDATE\nofx_transactions", "UPDATE"},
		{"COMMIT", "COMMIT"},
	}

	for _, tt := range tests {
		if got := extractSQLVerb(tt.in); got != tt.want {
			t.Errorf("extractSQLVerb(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUsagePercent(t *testing.T) {
	tests := []struct {
		realized, budget, want float64
	}{
		{50, 200, 25},
		{300, 200, 150},
		{10, 0, 0},
		{10, -5, 0},
	}

	for _, tt := range tests {
		if got := UsagePercent(tt.realized, tt.budget); got != tt.want {
			t.Errorf("UsagePercent(%v, %v) = %v, want %v", tt.realized, tt.budget, got, tt.want)
		}
	}
}
