package funcs

import (
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var TemplateFuncs = template.FuncMap{
	"titleCase": titleCase,
	"upper":     strings.ToUpper,
	"lower":     strings.ToLower,
	"humanDate": humanDate,
}

func titleCase(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

func humanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format("02 Jan 2006 at 15:04")
}
