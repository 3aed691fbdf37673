package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/importer"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/normalize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// reviewFile is the JSON document written by `import analyze` and read
// back by `import commit`. Editing the action fields is the review step;
// there is no auto-commit path around it.
type reviewFile struct {
	BatchID   string         `json:"batch_id"`
	AccountID string         `json:"account_id"`
	Records   []reviewRecord `json:"records"`
}

type reviewRecord struct {
	Date           string `json:"date"`
	Amount         string `json:"amount"`
	Description    string `json:"description"`
	Hash           string `json:"hash"`
	ValueDate      string `json:"value_date,omitempty"`
	PurchaseDate   string `json:"purchase_date,omitempty"`
	CheckNumber    string `json:"check_number,omitempty"`
	Verdict        string `json:"verdict"`
	MatchedEntryID string `json:"matched_entry_id,omitempty"`
	Action         string `json:"action"`
	CategoryID     string `json:"category_id,omitempty"`
	PayeeID        string `json:"payee_id,omitempty"`
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank statements",
	}
	cmd.AddCommand(importAnalyzeCmd())
	cmd.AddCommand(importCommitCmd())
	return cmd
}

func importAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Classify a bank file and write a review document",
		Long: `Analyze normalizes a bank file (OFX/QFX or CSV), classifies every
record as new, duplicate or match against the existing ledger, and writes
a review JSON document. Edit the per-record actions, then run
'import commit' on the reviewed file.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportAnalyze,
	}

	cmd.Flags().StringP("account", "a", "", "target ledger account ID (required)")
	cmd.Flags().StringP("out", "o", "", "review file to write (default: <file>.review.json)")
	cmd.Flags().String("format", "", "file format: ofx or csv (default: by extension)")
	cmd.Flags().Int("csv-date-col", 0, "CSV date column index")
	cmd.Flags().Int("csv-desc-col", 1, "CSV description column index")
	cmd.Flags().Int("csv-amount-col", 2, "CSV amount column index")
	cmd.Flags().String("csv-date-format", "2006-01-02", "CSV date layout")
	cmd.Flags().Bool("csv-header", true, "CSV file has a header row")
	_ = cmd.MarkFlagRequired("account")

	_ = viper.BindPFlag("import.account", cmd.Flags().Lookup("account"))

	return cmd
}

func runImportAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	accountID, _ := cmd.Flags().GetString("account")
	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		outPath = path + ".review.json"
	}

	records, sourceConfig, err := normalizeFile(ctx, cmd, path)
	if err != nil {
		return err
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	who, err := owner()
	if err != nil {
		return err
	}

	analyzer := importer.NewAnalyzer(store)
	batch, reviews, err := analyzer.Analyze(ctx, who, accountID, sourceConfig, records)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	doc := reviewFile{
		BatchID:   batch.ID,
		AccountID: accountID,
	}
	for _, review := range reviews {
		rec := reviewRecord{
			Date:        review.Record.Date.Format("2006-01-02"),
			Amount:      review.Record.Amount.StringFixed(2),
			Description: review.Record.Description,
			Hash:        review.Record.Hash,
			CheckNumber: review.Record.CheckNumber,
			Verdict:     string(review.Verdict),
			Action:      string(review.Verdict.DefaultAction()),
		}
		if review.Record.ValueDate != nil {
			rec.ValueDate = review.Record.ValueDate.Format("2006-01-02")
		}
		if review.Record.PurchaseDate != nil {
			rec.PurchaseDate = review.Record.PurchaseDate.Format("2006-01-02")
		}
		if review.Matched != nil {
			rec.MatchedEntryID = review.Matched.ID
		}
		doc.Records = append(doc.Records, rec)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode review file: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write review file: %w", err)
	}

	slog.Info("Wrote review file", "path", outPath, "batch_id", batch.ID, "records", len(doc.Records))
	fmt.Printf("Review %s, then run: ledgerloom import commit %s\n", outPath, outPath)
	return nil
}

func importCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit <review.json>",
		Short: "Commit a reviewed import",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCommit,
	}
}

func runImportCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read review file: %w", err)
	}

	var doc reviewFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse review file: %w", err)
	}

	reviewed, err := reviewedRecords(doc)
	if err != nil {
		return err
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	committer := importer.NewCommitter(store)
	summary, err := committer.Commit(ctx, doc.BatchID, reviewed)
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	fmt.Printf("Imported %d, duplicates %d, skipped %d, errors %d (total %d)\n",
		summary.Imported, summary.Duplicates, summary.Skipped, summary.Errors, summary.Total())
	return nil
}

func reviewedRecords(doc reviewFile) ([]model.ReviewedRecord, error) {
	reviewed := make([]model.ReviewedRecord, 0, len(doc.Records))
	for i, rec := range doc.Records {
		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad date %q: %w", i, rec.Date, err)
		}
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad amount %q: %w", i, rec.Amount, err)
		}
		valueDate, err := optionalDate(rec.ValueDate)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad value_date %q: %w", i, rec.ValueDate, err)
		}
		purchaseDate, err := optionalDate(rec.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad purchase_date %q: %w", i, rec.PurchaseDate, err)
		}

		reviewed = append(reviewed, model.ReviewedRecord{
			Record: model.RawRecord{
				Date:         date,
				Amount:       amount,
				Description:  rec.Description,
				Hash:         rec.Hash,
				ValueDate:    valueDate,
				PurchaseDate: purchaseDate,
				CheckNumber:  rec.CheckNumber,
			},
			Verdict:        model.Verdict(rec.Verdict),
			Action:         model.ReviewAction(rec.Action),
			MatchedEntryID: rec.MatchedEntryID,
			CategoryID:     rec.CategoryID,
			PayeeID:        rec.PayeeID,
		})
	}
	return reviewed, nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// normalizeFile dispatches on format flag or file extension.
func normalizeFile(ctx context.Context, cmd *cobra.Command, path string) ([]model.RawRecord, string, error) {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ofx", ".qfx":
			format = "ofx"
		case ".csv":
			format = "csv"
		default:
			return nil, "", fmt.Errorf("cannot detect format of %s, use --format", path)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case "ofx":
		statements, err := normalize.NewOFXNormalizer().Normalize(ctx, f)
		if err != nil {
			return nil, "", err
		}
		if len(statements) == 0 {
			return nil, "", fmt.Errorf("no statements found in %s", path)
		}
		if len(statements) > 1 {
			slog.Warn("File contains multiple statements, importing the first",
				"count", len(statements))
		}
		return statements[0].Records, "ofx account=" + statements[0].BankAccountID, nil

	case "csv":
		config := normalize.CSVConfig{
			DateColumn:        mustGetInt(cmd, "csv-date-col"),
			DescriptionColumn: mustGetInt(cmd, "csv-desc-col"),
			AmountColumn:      mustGetInt(cmd, "csv-amount-col"),
			DateFormat:        mustGetString(cmd, "csv-date-format"),
			HasHeader:         mustGetBool(cmd, "csv-header"),
		}
		records, err := normalize.NewCSVNormalizer(config).Normalize(ctx, f)
		if err != nil {
			return nil, "", err
		}
		return records, config.String(), nil

	default:
		return nil, "", fmt.Errorf("unknown format %q", format)
	}
}

func mustGetInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func mustGetString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
