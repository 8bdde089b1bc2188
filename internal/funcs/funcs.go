package funcs

import (
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var TemplateFuncs = template.FuncMap{
	"formatSAR":  formatSAR,
	"formatDate": formatDate,
	"upper":      strings.ToUpper,
}

// formatSAR renders an amount the way it appears on customer documents,
// e.g. "SAR 24,500.00".
func formatSAR(amount float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("SAR %.2f", amount)
}

func formatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}
