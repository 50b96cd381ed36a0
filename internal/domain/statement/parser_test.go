package statement

import (
	"reflect"
	"testing"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<STMTRS>
<CURDEF>BRL
<BANKACCTFROM>
<BANKID>0341
<ACCTID>12345-6
</BANKACCTFROM>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240315120000[-3:GMT]
<TRNAMT>-150,25
<FITID>202403150001
<CHECKNUM>000123
<NAME>PAGTO FORNECEDOR
<MEMO>NF 4411
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240316
<TRNAMT>1000.00
<FITID>202403160001
<MEMO>TED RECEBIDA
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEP
<DTPOSTED>20240314
<TRNAMT>50
<FITID>202403140001
<NAME>DEPOSITO
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1500,75
<DTASOF>20240316
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParse_Sample(t *testing.T) {
	doc := Parse(sampleOFX)

	if doc.BankID != "0341" {
		t.Errorf("BankID = %q, want %q", doc.BankID, "0341")
	}
	if doc.AccountID != "12345-6" {
		t.Errorf("AccountID = %q, want %q", doc.AccountID, "12345-6")
	}
	if doc.LedgerBalance != 1500.75 {
		t.Errorf("LedgerBalance = %v, want 1500.75", doc.LedgerBalance)
	}

	want := []Transaction{
		{Type: "DEBIT", PostedDate: "2024-03-15", Amount: -150.25, FitID: "202403150001", CheckNumber: "000123", Memo: "PAGTO FORNECEDOR - NF 4411", Name: "PAGTO FORNECEDOR"},
		{Type: "CREDIT", PostedDate: "2024-03-16", Amount: 1000, FitID: "202403160001", Memo: "TED RECEBIDA"},
		{Type: "DEP", PostedDate: "2024-03-14", Amount: 50, FitID: "202403140001", Memo: "DEPOSITO", Name: "DEPOSITO"},
	}
	if !reflect.DeepEqual(doc.Transactions, want) {
		t.Errorf("Transactions = %+v\nwant %+v", doc.Transactions, want)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	doc := Parse("")

	want := &Document{BankID: "Unknown", AccountID: "Unknown", LedgerBalance: 0, Transactions: []Transaction{}}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Parse(\"\") = %+v, want %+v", doc, want)
	}
}

func TestParse_Idempotent(t *testing.T) {
	first := Parse(sampleOFX)
	second := Parse(sampleOFX)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing twice gave different documents:\n%+v\n%+v", first, second)
	}
}

func TestParse_UnclosedTags(t *testing.T) {
	doc := Parse("<BANKID>001\n<ACCTID>123")

	if doc.BankID != "001" {
		t.Errorf("BankID = %q, want %q", doc.BankID, "001")
	}
	if doc.AccountID != "123" {
		t.Errorf("AccountID = %q, want %q", doc.AccountID, "123")
	}
}

func TestParse_CaseInsensitiveTags(t *testing.T) {
	doc := Parse("<bankid>237<acctid>999<stmttrn><trnamt>-1<fitid>x</stmttrn>")

	if doc.BankID != "237" || doc.AccountID != "999" {
		t.Errorf("got BankID=%q AccountID=%q", doc.BankID, doc.AccountID)
	}
	if len(doc.Transactions) != 1 || doc.Transactions[0].Amount != -1 {
		t.Errorf("Transactions = %+v", doc.Transactions)
	}
}

func TestParse_EmbeddedAngleBracketTruncates(t *testing.T) {
	doc := Parse("<STMTTRN><MEMO>PIX <JOAO> SILVA\n<FITID>1</STMTTRN>")

	if got := doc.Transactions[0].Memo; got != "PIX" {
		t.Errorf("Memo = %q, want %q", got, "PIX")
	}
}

func TestParse_WhitespaceOnlyFallsBackToDefaults(t *testing.T) {
	doc := Parse("<BANKID>   \n<ACCTID>\t\n<BALAMT>  \n")

	if doc.BankID != UnknownID || doc.AccountID != UnknownID {
		t.Errorf("got BankID=%q AccountID=%q, want %q", doc.BankID, doc.AccountID, UnknownID)
	}
	if doc.LedgerBalance != 0 {
		t.Errorf("LedgerBalance = %v, want 0", doc.LedgerBalance)
	}
}

func TestParse_DuplicateFitIDsPreserved(t *testing.T) {
	text := "<STMTTRN><FITID>A<TRNAMT>1</STMTTRN>" +
		"<STMTTRN><FITID>A<TRNAMT>2</STMTTRN>" +
		"<STMTTRN><FITID>A<TRNAMT>3</STMTTRN>"

	doc := Parse(text)

	if len(doc.Transactions) != 3 {
		t.Fatalf("len(Transactions) = %d, want 3", len(doc.Transactions))
	}
	for i, tx := range doc.Transactions {
		if tx.FitID != "A" || tx.Amount != float64(i+1) {
			t.Errorf("Transactions[%d] = %+v", i, tx)
		}
	}
}

func TestParse_BlockWithoutClosingTagIsIgnored(t *testing.T) {
	doc := Parse("<STMTTRN><FITID>1</STMTTRN><STMTTRN><FITID>2")

	if len(doc.Transactions) != 1 || doc.Transactions[0].FitID != "1" {
		t.Errorf("Transactions = %+v, want only FITID 1", doc.Transactions)
	}
}

func TestParse_MissingAmountAndDate(t *testing.T) {
	doc := Parse("<STMTTRN><TRNTYPE>OTHER<FITID>9</STMTTRN>")

	tx := doc.Transactions[0]
	if tx.Amount != 0 {
		t.Errorf("Amount = %v, want 0", tx.Amount)
	}
	if tx.PostedDate != "" {
		t.Errorf("PostedDate = %q, want empty", tx.PostedDate)
	}
	if tx.Memo != "" {
		t.Errorf("Memo = %q, want empty", tx.Memo)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1500,75", 1500.75},
		{"1234,56", 1234.56},
		{"-150,25", -150.25},
		{"1000.00", 1000},
		{"1.234,56", 1.234}, // only the first comma is swapped, "1.234.56" reads as 1.234
		{"12abc", 12},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{" 42 ", 42},
		{"+3,5", 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseAmount(tt.input); got != tt.want {
				t.Errorf("parseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatPostedDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"20240315120000[-3:GMT]", "2024-03-15"},
		{"20240315", "2024-03-15"},
		{"2024031", ""},
		{"", ""},
		{"ABCDEFGH", "ABCD-EF-GH"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := formatPostedDate(tt.input); got != tt.want {
				t.Errorf("formatPostedDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinNonEmpty(t *testing.T) {
	tests := []struct {
		name, memo, want string
	}{
		{"NAME", "MEMO", "NAME - MEMO"},
		{"NAME", "", "NAME"},
		{"", "MEMO", "MEMO"},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := joinNonEmpty(" - ", tt.name, tt.memo); got != tt.want {
			t.Errorf("joinNonEmpty(%q, %q) = %q, want %q", tt.name, tt.memo, got, tt.want)
		}
	}
}
