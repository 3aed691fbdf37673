// Package normalize turns parsed bank files into the ordered raw-record
// sequences the import engine consumes.
package normalize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/shopspring/decimal"
)

// Statement is one account's worth of normalized records from a bank file.
type Statement struct {
	BankAccountID string
	Records       []model.RawRecord
}

// OFXNormalizer parses OFX/QFX files into raw records.
type OFXNormalizer struct{}

// NewOFXNormalizer creates a new OFX normalizer.
func NewOFXNormalizer() *OFXNormalizer {
	return &OFXNormalizer{}
}

// preprocessOFX fixes common formatting issues in OFX files before they
// reach the strict parser.
func (p *OFXNormalizer) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Normalize parses an OFX/QFX file and returns one statement per account
// found in it, each with its records in file order and hashes populated.
func (p *OFXNormalizer) Normalize(_ context.Context, reader io.Reader) ([]Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var statements []Statement

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			if stmt.BankTranList == nil {
				continue
			}
			statements = append(statements, Statement{
				BankAccountID: string(stmt.BankAcctFrom.AcctID),
				Records:       convertTransactions(stmt.BankTranList.Transactions),
			})
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			if stmt.BankTranList == nil {
				continue
			}
			statements = append(statements, Statement{
				BankAccountID: string(stmt.CCAcctFrom.AcctID),
				Records:       convertTransactions(stmt.BankTranList.Transactions),
			})
		}
	}

	total := 0
	for _, stmt := range statements {
		total += len(stmt.Records)
	}
	slog.Info("Parsed OFX file",
		"statements", len(statements),
		"total_records", total)

	return statements, nil
}

func convertTransactions(txns []ofxgo.Transaction) []model.RawRecord {
	records := make([]model.RawRecord, 0, len(txns))
	for _, ofxTx := range txns {
		description := strings.TrimSpace(string(ofxTx.Name))
		if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" && description == "" {
			description = memo
		}

		rec := model.RawRecord{
			Date:        ofxTx.DtPosted.Time,
			Amount:      decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2),
			Description: description,
			CheckNumber: strings.TrimSpace(string(ofxTx.CheckNum)),
		}
		if ofxTx.DtAvail != nil {
			avail := ofxTx.DtAvail.Time
			rec.ValueDate = &avail
		}
		if ofxTx.DtUser != nil {
			user := ofxTx.DtUser.Time
			rec.PurchaseDate = &user
		}
		rec.Hash = rec.GenerateHash()
		records = append(records, rec)
	}
	return records
}
