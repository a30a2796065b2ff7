package validation

import (
	"errors"
	"testing"
)

type signupInput struct {
	Email    string `validate:"required,account_email"`
	Password string `validate:"required,password"`
	Confirm  string `validate:"eqfield=Password"`
}

type ratingInput struct {
	Rating int `validate:"min=1,max=10"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		wantOK bool
		field  string
	}{
		{name: "valid signup", input: signupInput{Email: "a.b@example.com", Password: "Secret123", Confirm: "Secret123"}, wantOK: true},
		{name: "weak password", input: signupInput{Email: "a@example.com", Password: "secret123", Confirm: "secret123"}, field: "Password"},
		{name: "short password", input: signupInput{Email: "a@example.com", Password: "Se1", Confirm: "Se1"}, field: "Password"},
		{name: "bad email", input: signupInput{Email: "a@b@c", Password: "Secret123", Confirm: "Secret123"}, field: "Email"},
		{name: "mismatched confirm", input: signupInput{Email: "a@example.com", Password: "Secret123", Confirm: "Secret124"}, field: "Confirm"},
		{name: "rating in range", input: ratingInput{Rating: 10}, wantOK: true},
		{name: "rating too low", input: ratingInput{Rating: 0}, field: "Rating"},
		{name: "rating too high", input: ratingInput{Rating: 11}, field: "Rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != tt.field {
				t.Fatalf("expected single error on %s, got %+v", tt.field, verr.Fields)
			}
		})
	}
}
