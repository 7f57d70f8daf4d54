package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hasPrior bool
		want     Endpoints
	}{
		{
			name: "two urls are test then prod",
			text: "https://rz3.example.com/test4ce/rest and https://rz3.example.com/prod/rest",
			want: Endpoints{Test: "https://rz3.example.com/test4ce/rest", Prod: "https://rz3.example.com/prod/rest"},
		},
		{
			name: "labelled lines",
			text: "Test: https://t.example.com\nProd:  https://p.example.com",
			want: Endpoints{Test: "https://t.example.com", Prod: "https://p.example.com"},
		},
		{
			name: "german production label",
			text: "Produktion: https://p.example.com.",
			want: Endpoints{Prod: "https://p.example.com"},
		},
		{
			name: "single unlabeled url defaults to test",
			text: "our url is https://only.example.com",
			want: Endpoints{Test: "https://only.example.com"},
		},
		{
			name:     "single unlabeled url with prior endpoints is ignored",
			text:     "https://only.example.com",
			hasPrior: true,
			want:     Endpoints{},
		},
		{
			name: "test inside the url is not a label",
			text: "Prod: https://rz3.example.com/test4ce",
			want: Endpoints{Prod: "https://rz3.example.com/test4ce"},
		},
		{
			name: "no url",
			text: "I do not know them yet",
			want: Endpoints{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEndpoints(tt.text, tt.hasPrior))
		})
	}
}

func TestParseClientIdent(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"clientIdentCode=APITEST", "APITEST"},
		{"clientidentcode: acme_01", "ACME_01"},
		{"Mandantenname = Foo-Bar", "FOO-BAR"},
		{"Mandant: xyz", "XYZ"},
		{"Client: globex", "GLOBEX"},
		{"Our code is ACME in the TCM system", "ACME"},
		{"The API uses JSON", ""},
		{"order 12345", ""},
		{"no idea", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClientIdent(tt.text))
		})
	}
}

func TestSaysNoClientCode(t *testing.T) {
	assert.True(t, SaysNoClientCode("I don't have one"))
	assert.True(t, SaysNoClientCode("Wir haben noch keinen"))
	assert.False(t, SaysNoClientCode("clientIdentCode=ACME"))
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		text string
		want Answer
	}{
		{"yes", Yes},
		{"Y", Yes},
		{"Ja, ist eingerichtet", Yes},
		{"it is configured", Yes},
		{"vorhanden", Yes},
		{"no", No},
		{"Nein", No},
		{"not yet", No},
		{"noch nicht", No},
		{"the user is not configured", No},
		{"fehlt noch", No},
		{"what is that user?", Unclear},
		{"", Unclear},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseYesNo(tt.text))
		})
	}
	assert.Equal(t, "unclear", Unclear.String())
}
