package testsupport

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// ContactModel mirrors the embedded contact schema so package tests do not
// depend on the OpenAPI parser.
func ContactModel() model.FormModel {
	return model.FormModel{
		OperationID: "contact:submit",
		Endpoint:    "/contact",
		Method:      "POST",
		Title:       "Contact Form",
		Description: "Send us a note and we will get back to you.",
		SubmitLabel: "Submit",
		Fields: []model.Field{
			{
				Name:        "firstName",
				Type:        model.FieldTypeString,
				Label:       "First Name*",
				Placeholder: "Edd",
				TestID:      "firstnameDisplay",
				Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "5"}},
				},
			},
			{
				Name:        "lastName",
				Type:        model.FieldTypeString,
				Required:    true,
				Label:       "Last Name*",
				Placeholder: "Burke",
				TestID:      "lastnameDisplay",
				Validations: []model.ValidationRule{{Kind: model.ValidationRuleRequired}},
			},
			{
				Name:        "email",
				Type:        model.FieldTypeString,
				Format:      "email",
				Label:       "Email*",
				Placeholder: "bluebill1049@hotmail.com",
				TestID:      "emailDisplay",
				Validations: []model.ValidationRule{{Kind: model.ValidationRuleEmail}},
			},
			{
				Name:   "message",
				Type:   model.FieldTypeText,
				Label:  "Message",
				TestID: "messageDisplay",
			},
		},
	}
}

// FixedTime is the instant FixedClock reports.
var FixedTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// FixedClock always returns FixedTime.
func FixedClock() time.Time {
	return FixedTime
}

// SequentialIDs returns a generator producing deterministic uuids
// 00000000-0000-0000-0000-000000000001, ...02 and so on.
func SequentialIDs() func() uuid.UUID {
	var n int
	return func() uuid.UUID {
		n++
		return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
	}
}

// NewForm builds a contact form with deterministic clock and ids.
func NewForm(options ...contact.Option) *contact.Form {
	base := []contact.Option{
		contact.WithClock(FixedClock),
		contact.WithIDGenerator(SequentialIDs()),
	}
	return contact.NewForm(validation.New(ContactModel()), append(base, options...)...)
}

// MustReadFile reads a fixture or fails the test.
func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
