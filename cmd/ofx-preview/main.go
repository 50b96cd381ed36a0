package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"mrk/internal/domain/statement"
	"mrk/internal/shared/logger"
)

// Output formats.
const (
	formatDocument = "document"
	formatRows     = "rows"
	formatCSV      = "csv"
)

var csvHeader = []string{"dtPosted", "trnType", "amount", "balance", "fitId", "checkNum", "memo", "bankId", "acctId"}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		l := logger.New("info", logger.FormatConsole)
		l.Fatal().Err(err).Msg("preview failed")
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("ofx-preview", flag.ContinueOnError)
	format := fs.String("format", formatRows, "Output format: document, rows or csv")
	indent := fs.Bool("indent", true, "Indent JSON output")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: ofx-preview [options] <file.ofx|->")
		fmt.Fprintln(fs.Output(), "\nOptions:")
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  ofx-preview extrato.ofx")
		fmt.Fprintln(fs.Output(), "  ofx-preview --format=csv extrato.ofx > extrato.csv")
		fmt.Fprintln(fs.Output(), "  cat extrato.ofx | ofx-preview --format=document -")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one statement file")
	}

	raw, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	text, err := statement.DecodeLatin1(raw)
	if err != nil {
		return err
	}
	doc := statement.Parse(text)

	switch *format {
	case formatDocument:
		return writeJSON(stdout, doc, *indent)
	case formatRows:
		return writeJSON(stdout, statement.BuildUpload(doc), *indent)
	case formatCSV:
		return writeCSV(stdout, statement.BuildUpload(doc))
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	return raw, nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeCSV(w io.Writer, rows []statement.UploadRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.PostedDate,
			r.Type,
			decimal.NewFromFloat(r.Amount).StringFixed(2),
			decimal.NewFromFloat(r.Balance).StringFixed(2),
			r.FitID,
			r.CheckNumber,
			r.Memo,
			r.BankID,
			r.AccountID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
