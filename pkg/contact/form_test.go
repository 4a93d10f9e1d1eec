package contact_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/testsupport"
	"github.com/goliatone/go-contactform/pkg/validation"
)

const (
	firstNameMsg = "firstName must have at least 5 characters"
	lastNameMsg  = "lastName is a required field"
	emailMsg     = "email must be a valid email address"
)

func mustType(t *testing.T, form *contact.Form, field, text string) {
	t.Helper()
	if err := form.Type(field, text); err != nil {
		t.Fatalf("type %s: %v", field, err)
	}
}

func TestForm_StartsPristine(t *testing.T) {
	form := testsupport.NewForm()

	view := form.View()
	if view.State != contact.StatePristine {
		t.Fatalf("expected pristine, got %s", view.State)
	}
	if view.Snapshot != nil || len(view.Errors) != 0 {
		t.Fatalf("expected no snapshot or errors, got %+v", view)
	}
}

func TestForm_SubmitEmptyYieldsThreeErrors(t *testing.T) {
	form := testsupport.NewForm()

	result := form.Submit()
	if result.OK() {
		t.Fatalf("expected failure")
	}
	want := validation.Errors{
		{Field: "firstName", Message: firstNameMsg},
		{Field: "lastName", Message: lastNameMsg},
		{Field: "email", Message: emailMsg},
	}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if form.State() != contact.StateInvalid {
		t.Fatalf("expected invalid, got %s", form.State())
	}
	if _, ok := form.Snapshot(); ok {
		t.Fatalf("snapshot must not exist after a failed submit")
	}
}

func TestForm_TypingAfterSubmitRevalidates(t *testing.T) {
	form := testsupport.NewForm()
	form.Submit()

	mustType(t, form, contact.FieldFirstName, "four")

	if form.State() != contact.StateEditing {
		t.Fatalf("expected editing, got %s", form.State())
	}
	got, ok := form.Errors().For("firstName")
	if !ok || got.Display() != "Error: firstName must have at least 5 characters." {
		t.Fatalf("expected first name error to stay visible, got %+v", form.Errors())
	}

	mustType(t, form, contact.FieldFirstName, "s")
	if form.Errors().Has("firstName") {
		t.Fatalf("five characters should clear the first name error")
	}
}

func TestForm_EditsBeforeSubmitDoNotValidate(t *testing.T) {
	form := testsupport.NewForm()
	mustType(t, form, contact.FieldFirstName, "abc")

	if errs := form.Errors(); len(errs) != 0 {
		t.Fatalf("expected no errors before submit, got %+v", errs)
	}
}

func TestForm_ValidateOnChange(t *testing.T) {
	form := testsupport.NewForm(contact.WithValidateOnChange(true))
	mustType(t, form, contact.FieldEmail, "x")

	if !form.Errors().Has("email") {
		t.Fatalf("expected email error while typing")
	}
}

func TestForm_MissingEmailYieldsOneError(t *testing.T) {
	form := testsupport.NewForm()
	mustType(t, form, contact.FieldFirstName, "Spongebob")
	mustType(t, form, contact.FieldLastName, "Squarepants")

	result := form.Submit()
	want := validation.Errors{{Field: "email", Message: emailMsg}}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SuccessfulSubmitWithoutMessage(t *testing.T) {
	form := testsupport.NewForm()
	mustType(t, form, contact.FieldFirstName, "Spongebob")
	mustType(t, form, contact.FieldLastName, "Squarepants")
	mustType(t, form, contact.FieldEmail, "email@hotmail.com")

	result := form.Submit()
	if !result.OK() {
		t.Fatalf("expected success, got %+v", result.Errors)
	}
	want := contact.Snapshot{
		ID:          uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Values:      contact.Values{FirstName: "Spongebob", LastName: "Squarepants", Email: "email@hotmail.com"},
		SubmittedAt: testsupport.FixedTime,
	}
	if diff := cmp.Diff(want, *result.Snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if result.Snapshot.HasMessage() {
		t.Fatalf("message was not entered")
	}
	if form.State() != contact.StateSubmitted {
		t.Fatalf("expected submitted, got %s", form.State())
	}
}

func TestForm_SnapshotKeepsValuesVerbatim(t *testing.T) {
	form := testsupport.NewForm()
	input := contact.Values{
		FirstName: " Spongebob ",
		LastName:  "Squarepants",
		Email:     "email@hotmail.com",
		Message:   "insert message here",
	}
	if err := form.Fill(input); err != nil {
		t.Fatalf("fill: %v", err)
	}

	result := form.Submit()
	if !result.OK() {
		t.Fatalf("expected success, got %+v", result.Errors)
	}
	if diff := cmp.Diff(input, result.Snapshot.Values); diff != "" {
		t.Fatalf("snapshot values mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SnapshotIndependentOfLaterEdits(t *testing.T) {
	form := testsupport.NewForm()
	_ = form.Fill(contact.Values{FirstName: "Spongebob", LastName: "Squarepants", Email: "email@hotmail.com"})
	form.Submit()

	mustType(t, form, contact.FieldLastName, "!!")
	if err := form.Set(contact.FieldEmail, "broken"); err != nil {
		t.Fatalf("set: %v", err)
	}
	snapshot, ok := form.Snapshot()
	if !ok || snapshot.Values.LastName != "Squarepants" {
		t.Fatalf("snapshot changed with edits: %+v", snapshot)
	}

	result := form.Submit()
	if result.OK() {
		t.Fatalf("expected failure for broken email")
	}
	kept, ok := form.Snapshot()
	if !ok || kept.ID != snapshot.ID {
		t.Fatalf("failed submit should keep the previous snapshot")
	}

	_ = form.Set(contact.FieldEmail, "fixed@hotmail.com")
	next := form.Submit()
	if !next.OK() || next.Snapshot.ID == snapshot.ID {
		t.Fatalf("successful submit should replace the snapshot")
	}
	if next.Snapshot.Values.LastName != "Squarepants!!" {
		t.Fatalf("unexpected values %+v", next.Snapshot.Values)
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("success must clear errors")
	}
}

func TestForm_UnknownField(t *testing.T) {
	form := testsupport.NewForm()
	err := form.Set("phone", "555")
	if !errors.Is(err, contact.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if form.State() != contact.StatePristine {
		t.Fatalf("rejected edits must not change state")
	}

	if err := form.Type("phone", ""); !errors.Is(err, contact.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for empty keystrokes, got %v", err)
	}
	if err := form.Type("phone", "555"); !errors.Is(err, contact.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField from Type, got %v", err)
	}
	if form.State() != contact.StatePristine {
		t.Fatalf("rejected keystrokes must not change state")
	}
}

func TestSupports(t *testing.T) {
	if err := contact.Supports(testsupport.ContactModel()); err != nil {
		t.Fatalf("contact model should be supported: %v", err)
	}

	definition := testsupport.ContactModel()
	definition.Fields = append(definition.Fields, model.Field{Name: "phone", Type: model.FieldTypeString})
	err := contact.Supports(definition)
	if !errors.Is(err, contact.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if !strings.Contains(err.Error(), `"phone"`) {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestForm_Reset(t *testing.T) {
	form := testsupport.NewForm()
	_ = form.Fill(contact.Values{FirstName: "Spongebob", LastName: "Squarepants", Email: "email@hotmail.com"})
	form.Submit()
	form.Reset()

	view := form.View()
	if view.State != contact.StatePristine || view.Snapshot != nil || view.Values != (contact.Values{}) {
		t.Fatalf("reset left state behind: %+v", view)
	}
}

func TestForm_ConcurrentEdits(t *testing.T) {
	form := testsupport.NewForm()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = form.Type(contact.FieldMessage, "a")
			form.Submit()
			_ = form.View()
		}()
	}
	wg.Wait()

	if got := len(form.Values().Message); got != 8 {
		t.Fatalf("expected 8 keystrokes, got %d", got)
	}
}

func TestState_String(t *testing.T) {
	cases := map[contact.State]string{
		contact.StatePristine:  "pristine",
		contact.StateEditing:   "editing",
		contact.StateInvalid:   "invalid",
		contact.StateSubmitted: "submitted",
		contact.State(42):      "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("%d: got %q want %q", state, got, want)
		}
	}
}
