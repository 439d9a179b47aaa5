package resetpassword

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pz "github.com/weberc2/httpeasy"
	pztest "github.com/weberc2/httpeasy/testsupport"
)

type document struct {
	title          string
	errorMessage   string
	successMessage string
	form           *form
}

type form struct {
	action         string
	submitDisabled bool
	fields         []input
	criteriaMet    []bool
}

func parseDocument(s pz.Serializer) (*goquery.Document, error) {
	data, err := pztest.ReadAll(s)
	if err != nil {
		return nil, fmt.Errorf("reading serializer: %w", err)
	}

	d, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("HTML-parsing response: %w", err)
	}
	return d, nil
}

func expectDocumentFromSerializer(s pz.Serializer, wanted *document) error {
	d, err := parseDocument(s)
	if err != nil {
		return err
	}
	return expectDocument(d, wanted)
}

func expectDocument(d *goquery.Document, wanted *document) error {
	head := d.Find("head")
	if head.Length() < 1 {
		return newError(d.Selection, "document: missing `<head>` element")
	}

	titleNode := head.Find("title")
	if titleNode.Length() < 1 {
		return newError(
			head,
			"document: `<head>` element: missing `<title>` element",
		)
	}

	if titleText := titleNode.Text(); titleText != wanted.title {
		return newError(
			titleNode,
			"document: `<head>` element: `<title> element: wanted `%s`; "+
				"found `%s`",
			wanted.title,
			titleText,
		)
	}

	body := d.Find("body")
	if body.Length() < 1 {
		return newError(d.Selection, "document: missing `<body>` element")
	}
	titleH1 := body.Find("h1#title")
	if titleH1.Length() < 1 {
		return newError(
			body,
			"document: `<body>` element: missing `<h1 id=\"title\">` element",
		)
	}
	if titleText := titleH1.Text(); titleText != wanted.title {
		return newError(
			titleH1,
			"document: `<body>` element: `<h1 id=\"title\">` element: "+
				"wanted `%s`; found `%s`",
			wanted.title,
			titleText,
		)
	}

	if err := expectMessage(
		body,
		"error-message",
		wanted.errorMessage,
	); err != nil {
		return err
	}
	if err := expectMessage(
		body,
		"success-message",
		wanted.successMessage,
	); err != nil {
		return err
	}

	if wanted.form != nil {
		return expectForm(d, wanted.form)
	}
	return nil
}

func expectMessage(body *goquery.Selection, id, wanted string) error {
	message := body.Find("p#" + id)
	if wanted == "" {
		if message.Length() > 0 {
			return newError(
				body,
				"document: `<body>` element: unexpected element: "+
					"`<p id=\"%s\">`",
				id,
			)
		}
		return nil
	}

	if message.Length() < 1 {
		return newError(
			body,
			"document: `<body>` element: missing `<p id=\"%s\">` element",
			id,
		)
	}
	if found := strings.TrimSpace(message.Text()); found != wanted {
		return newError(
			message,
			"document: `<body>` element: `<p id=\"%s\">` element: wanted "+
				"`%s`; found `%s`",
			id,
			wanted,
			found,
		)
	}
	return nil
}

func expectForm(d *goquery.Document, wanted *form) error {
	f := d.Find("form")
	if f.Length() < 1 {
		return newError(d.Selection, "document has no `<form>` element")
	}

	foundAction, exists := f.First().Attr("action")
	if !exists {
		return newError(f, "form missing attribute: `action`")
	}

	if foundAction != wanted.action {
		return fmt.Errorf(
			"form action: wanted `%s`; found `%s`",
			wanted.action,
			foundAction,
		)
	}

	for i := range wanted.fields {
		if err := expectInput(f, &wanted.fields[i]); err != nil {
			return err
		}
	}

	submit := f.Find("input#submit")
	if submit.Length() < 1 {
		return newError(f, "form: missing `<input id=\"submit\">` element")
	}
	if _, disabled := submit.Attr("disabled"); disabled != wanted.submitDisabled {
		return newError(
			submit,
			"form: submit button `disabled`: wanted `%t`; found `%t`",
			wanted.submitDisabled,
			disabled,
		)
	}

	if wanted.criteriaMet != nil {
		return expectCriteria(f, wanted.criteriaMet)
	}
	return nil
}

func expectCriteria(f *goquery.Selection, wanted []bool) error {
	items := f.Find("ul#criteria li")
	if items.Length() != len(wanted) {
		return newError(
			f,
			"form: criteria: wanted `%d` items; found `%d`",
			len(wanted),
			items.Length(),
		)
	}

	var err error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		class := "unmet"
		marker := "❌"
		if wanted[i] {
			class = "met"
			marker = "✅"
		}
		if !item.HasClass(class) {
			err = newError(
				item,
				"form: criterion `%d`: wanted class `%s`",
				i,
				class,
			)
			return false
		}
		if found := item.Find(".marker").Text(); found != marker {
			err = newError(
				item,
				"form: criterion `%d`: marker: wanted `%s`; found `%s`",
				i,
				marker,
				found,
			)
			return false
		}
		return true
	})
	return err
}

func expectInput(f *goquery.Selection, input *input) error {
	field := f.Find(fmt.Sprintf("input[name=\"%s\"]", input.name))
	if field.Length() < 1 {
		return newError(f, "form field `%s`: not found", input.name)
	}

	type_, exists := field.First().Attr("type")
	if !exists {
		return newError(
			f,
			"form field `%s`: missing `type` attribute",
			input.name,
		)
	}

	if type_ != input.type_ {
		return newError(
			field,
			"form's field `%s`: attribute `type`: wanted `%s`; found `%s`",
			input.name,
			input.type_,
			type_,
		)
	}

	// a missing `value` attribute and an empty one are the same to the
	// browser
	if value := field.First().AttrOr("value", ""); value != input.value {
		return newError(
			field,
			"form field `%s`: attribute `value`: wanted `%s`; found `%s`",
			input.name,
			input.value,
			value,
		)
	}

	label := f.Find(fmt.Sprintf(`label[for="%s"]`, input.name))
	if input.label == "" && label.Length() > 0 {
		return newError(
			f,
			"form field `%s`: found unwanted label",
			input.name,
		)
	} else if input.label != "" && label.Length() < 1 {
		return newError(
			f,
			"form field `%s`: wanted label `%s`; label node not found",
			input.name,
			input.label,
		)
	} else if input.label != "" && label.Text() != input.label {
		return newError(
			label,
			"form field `%s`: wanted label `%s`; found `%s`",
			input.name,
			input.label,
			label.Text(),
		)
	}

	return nil
}

func newError(s *goquery.Selection, format string, v ...interface{}) error {
	return handleErr(s, fmt.Errorf(format, v...))
}

func handleErr(s *goquery.Selection, err error) error {
	html, renderErr := s.Html()
	if renderErr != nil {
		return fmt.Errorf(
			"error rendering HTML while handling error (original error: "+
				"%w): %v",
			err,
			renderErr,
		)
	}

	return fmt.Errorf("%w:\n\n%s", err, html)
}

type input struct {
	name  string
	type_ string
	value string
	label string
}

// passwordFields describes the reset form's inputs with both passwords
// masked.
func passwordFields(
	password string,
	confirmPassword string,
	token string,
) []input {
	return []input{
		{
			name:  "password",
			type_: "password",
			value: password,
			label: "New Password",
		},
		{
			name:  "confirmPassword",
			type_: "password",
			value: confirmPassword,
			label: "Confirm Password",
		},
		{
			name:  "showPassword",
			type_: "checkbox",
			value: "on",
			label: "Show",
		},
		{
			name:  "showConfirmPassword",
			type_: "checkbox",
			value: "on",
			label: "Show",
		},
		{name: "token", type_: "hidden", value: token},
	}
}

type kv [2]string

func encodeForm(form ...kv) string {
	const key = 0
	const val = 1
	if len(form) < 1 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(url.QueryEscape(form[0][key]))
	sb.WriteByte('=')
	sb.WriteString(url.QueryEscape(form[0][val]))
	for i := range form[1:] {
		sb.WriteByte('&')
		sb.WriteString(url.QueryEscape(form[i+1][key]))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(form[i+1][val]))
	}
	return sb.String()
}
