package statement

import "testing"

func TestBuildUpload_RunningBalance(t *testing.T) {
	doc := Parse(sampleOFX)

	rows := BuildUpload(doc)

	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	wantOrder := []string{"2024-03-16", "2024-03-15", "2024-03-14"}
	wantBalance := []float64{1500.75, 500.75, 651}
	for i, row := range rows {
		if row.PostedDate != wantOrder[i] {
			t.Errorf("rows[%d].PostedDate = %q, want %q", i, row.PostedDate, wantOrder[i])
		}
		if row.Balance != wantBalance[i] {
			t.Errorf("rows[%d].Balance = %v, want %v", i, row.Balance, wantBalance[i])
		}
		if row.BankID != "0341" || row.AccountID != "12345-6" {
			t.Errorf("rows[%d] lost account metadata: %+v", i, row)
		}
	}
}

func TestBuildUpload_BalanceStepInvariant(t *testing.T) {
	doc := &Document{
		LedgerBalance: 100.1,
		Transactions: []Transaction{
			{PostedDate: "2024-01-01", Amount: 0.1},
			{PostedDate: "2024-01-03", Amount: -0.2},
			{PostedDate: "2024-01-02", Amount: 0.3},
		},
	}

	rows := BuildUpload(doc)

	for i := 1; i < len(rows); i++ {
		want := rows[i-1].Balance - rows[i-1].Amount
		diff := rows[i].Balance - want
		if diff > 1e-9 || diff < -1e-9 {
			t.Errorf("rows[%d].Balance = %v, want %v", i, rows[i].Balance, want)
		}
	}
	if rows[2].Balance != 100 {
		t.Errorf("oldest balance = %v, want exactly 100", rows[2].Balance)
	}
}

func TestBuildUpload_StableForEqualDates(t *testing.T) {
	doc := &Document{Transactions: []Transaction{
		{PostedDate: "2024-01-01", FitID: "a"},
		{PostedDate: "2024-01-01", FitID: "b"},
		{PostedDate: "", FitID: "c"},
		{PostedDate: "2024-01-01", FitID: "d"},
	}}

	rows := BuildUpload(doc)

	got := ""
	for _, r := range rows {
		got += r.FitID
	}
	if got != "abdc" {
		t.Errorf("order = %q, want %q", got, "abdc")
	}
}

func TestBuildUpload_DoesNotReorderDocument(t *testing.T) {
	doc := Parse(sampleOFX)
	BuildUpload(doc)

	if doc.Transactions[0].FitID != "202403150001" {
		t.Errorf("document order changed: first FITID = %q", doc.Transactions[0].FitID)
	}
}

func TestBuildUpload_Nil(t *testing.T) {
	if rows := BuildUpload(nil); rows != nil {
		t.Errorf("BuildUpload(nil) = %v, want nil", rows)
	}
}

func TestUploadRow_Validate(t *testing.T) {
	tests := []struct {
		name string
		row  UploadRow
		want error
	}{
		{"valid", UploadRow{PostedDate: "2024-01-01", FitID: "1"}, nil},
		{"missing date", UploadRow{FitID: "1"}, ErrMissingPostedDate},
		{"missing fitid", UploadRow{PostedDate: "2024-01-01"}, ErrMissingFitID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.Validate(); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}
