package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const refusal = "Saya hanya dapat menjawab pertanyaan seputar data keuangan Anda dan aplikasi Finentry."

// SystemPrompt grounds the model on fc and the application's features.
func SystemPrompt(fc *FinancialContext, now time.Time) (string, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("assistant: encode context: %w", err)
	}
	subject := fc.Company
	if subject == "" {
		subject = "all companies"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are a financial assistant for %s.\n", subject)
	fmt.Fprintf(&b, "Current date: %s\n\n", now.Format("2006-01-02"))
	b.WriteString("Answer strictly from the CONTEXT below.\n\n")
	b.WriteString("APPLICATION:\n")
	b.WriteString("Finentry is a bookkeeping dashboard for trading businesses: transactions with tax and stock tracking, ")
	b.WriteString("Excel import, income statements, customer and vendor records, delivery orders.\n\n")
	b.WriteString("FINANCIAL CONTEXT:\n")
	b.Write(data)
	b.WriteString("\n\nGUIDELINES:\n")
	b.WriteString("- Reply in Indonesian, professionally and based on the data.\n")
	b.WriteString("- Format currency as IDR (Rp).\n")
	b.WriteString("- You may answer questions about the data above, about using Finentry, and definitions of its financial terms (COGS, margin, PPN).\n")
	fmt.Fprintf(&b, "- Politely refuse anything else with: %q\n", refusal)
	b.WriteString("- If the data needed is missing, say \"Data tidak tersedia.\"\n")
	return b.String(), nil
}
