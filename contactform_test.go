package contactform_test

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	contactform "github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/testsupport"
)

func TestDefaultFormMatchesFixture(t *testing.T) {
	form, err := contactform.DefaultForm(context.Background())
	if err != nil {
		t.Fatalf("default form: %v", err)
	}

	want := testsupport.ContactModel()
	if form.OperationID != want.OperationID || form.Title != want.Title || form.Endpoint != want.Endpoint {
		t.Fatalf("unexpected form header: %+v", form)
	}
	if diff := cmp.Diff(want.Fields, form.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestContactSchemaReturnsCopy(t *testing.T) {
	first := contactform.ContactSchema()
	first[0] = '#'
	if contactform.ContactSchema()[0] == '#' {
		t.Fatalf("embedded schema mutated through returned slice")
	}
}

func TestNewFormSubmitsAgainstDefinition(t *testing.T) {
	form := contactform.NewForm(testsupport.ContactModel())
	if err := form.Fill(contactform.Values{FirstName: "Ashley", LastName: "Burke", Email: "ashley@example.com"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if result := form.Submit(); !result.OK() {
		t.Fatalf("expected submit to succeed, got %v", result.Errors)
	}
}

func TestGenerateHTML(t *testing.T) {
	form := contactform.NewForm(testsupport.ContactModel())
	form.Submit()

	out, err := contactform.GenerateHTML(context.Background(), testsupport.ContactModel(), render.OptionsFromView(form.View()))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	html := string(out)
	for _, fragment := range []string{"<h1>Contact Form</h1>", "Error: lastName is a required field."} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in output\n%s", fragment, html)
		}
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.Stat(contactform.EmbeddedTemplates(), "templates/form.tmpl"); err != nil {
		t.Fatalf("expected form.tmpl in embedded templates: %v", err)
	}
}

func TestLoadFormRejectsUnsupportedField(t *testing.T) {
	raw := testsupport.MustReadFile(t, filepath.Join("testdata", "contact_phone.yaml"))

	_, err := contactform.LoadForm(context.Background(), raw, contactform.OperationID)
	if !errors.Is(err, contact.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if !strings.Contains(err.Error(), `"phone"`) {
		t.Fatalf("error should name the unsupported field: %v", err)
	}
}
