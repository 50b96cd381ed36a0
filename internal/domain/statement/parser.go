package statement

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	// Closing tag is mandatory for transaction blocks, unlike single-value tags.
	stmtTrnPattern = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)

	// Longest prefix that reads as a decimal number, e.g. "1.234.56" -> "1.234".
	leadingFloatPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

	tagPatterns sync.Map // tag name -> *regexp.Regexp
)

// Parse extracts account metadata and transactions from OFX/QFX text.
//
// The markup is treated as tag soup: a tag's value runs until the next '<',
// newline or carriage return, closing tags are optional for single values and
// nothing is validated. Anything unreadable falls back to an empty value, a
// zero amount or UnknownID, so Parse never fails.
func Parse(text string) *Document {
	doc := &Document{
		BankID:        orDefault(extractTag(text, "BANKID"), UnknownID),
		AccountID:     orDefault(extractTag(text, "ACCTID"), UnknownID),
		LedgerBalance: parseAmount(extractTag(text, "BALAMT")),
		Transactions:  []Transaction{},
	}

	for _, m := range stmtTrnPattern.FindAllStringSubmatch(text, -1) {
		doc.Transactions = append(doc.Transactions, parseTransaction(m[1]))
	}

	return doc
}

func parseTransaction(block string) Transaction {
	name := extractTag(block, "NAME")
	memo := extractTag(block, "MEMO")

	return Transaction{
		Type:        extractTag(block, "TRNTYPE"),
		PostedDate:  formatPostedDate(extractTag(block, "DTPOSTED")),
		Amount:      parseAmount(extractTag(block, "TRNAMT")),
		FitID:       extractTag(block, "FITID"),
		CheckNumber: extractTag(block, "CHECKNUM"),
		Memo:        joinNonEmpty(" - ", name, memo),
		Name:        name,
	}
}

// extractTag returns the trimmed value of the first <tag> in content, or "".
func extractTag(content, tag string) string {
	m := tagPattern(tag).FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func tagPattern(tag string) *regexp.Regexp {
	if re, ok := tagPatterns.Load(tag); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)<` + regexp.QuoteMeta(tag) + `>([^<\n\r]*)`)
	actual, _ := tagPatterns.LoadOrStore(tag, re)
	return actual.(*regexp.Regexp)
}

// parseAmount reads a statement number. Only the first comma is taken as a
// decimal point; the longest numeric prefix wins and anything else is 0.
func parseAmount(raw string) float64 {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	num := leadingFloatPattern.FindString(s)
	if num == "" {
		return 0
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return v
}

// formatPostedDate turns "20240315120000[-3:GMT]" into "2024-03-15".
func formatPostedDate(raw string) string {
	r := []rune(raw)
	if len(r) > 8 {
		r = r[:8]
	}
	if len(r) != 8 {
		return ""
	}
	return string(r[0:4]) + "-" + string(r[4:6]) + "-" + string(r[6:8])
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
