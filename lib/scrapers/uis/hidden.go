package uis

import (
	"bytes"
	"gradewatch/lib/htmlutil"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// names and values of the authserver's opaque form tokens
var tokenPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// ScrapeHiddenFields collects the hidden inputs of a login page whose name
// and value both look like opaque tokens. inputs that don't are skipped.
func ScrapeHiddenFields(page []byte) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	doc.Find(`input[type="hidden"]`).Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || !tokenPattern.MatchString(name) {
			return
		}
		value, ok := input.Attr("value")
		if !ok || !tokenPattern.MatchString(value) {
			return
		}
		fields[name] = value
	})
	return fields, nil
}

// the elements the authserver renders its login error into
const loginErrorSelector = "#msg, #errorMsg, .auth_error"

// scrapeLoginError returns the message the authserver shows next to a
// rejected login, empty when there is none.
func scrapeLoginError(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	return htmlutil.SelectionText(doc.Find(loginErrorSelector).First())
}
