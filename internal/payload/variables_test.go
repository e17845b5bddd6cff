package payload

import "testing"

func TestDecodeVariables(t *testing.T) {
	vars := DecodeVariables(map[string]any{
		"candidateId":   " 7a9e3c52-1f05-4d2b-9c39-64c6f1a2b8d0 ",
		"candidateName": "Jordan Reyes",
		"companyName":   "Acme",
		"unrelated":     42,
	})

	if vars.CandidateID != "7a9e3c52-1f05-4d2b-9c39-64c6f1a2b8d0" {
		t.Fatalf("unexpected candidate id: %q", vars.CandidateID)
	}
	if vars.CandidateName != "Jordan Reyes" {
		t.Fatalf("unexpected candidate name: %q", vars.CandidateName)
	}
	if !vars.WellFormedCandidateID() {
		t.Fatal("expected well-formed candidate id")
	}
}

func TestDecodeVariablesWeakTyping(t *testing.T) {
	vars := DecodeVariables(map[string]any{"candidateId": 12345})

	if vars.CandidateID != "12345" {
		t.Fatalf("expected numeric id coerced to string, got %q", vars.CandidateID)
	}
	if vars.WellFormedCandidateID() {
		t.Fatal("non-uuid identifier must not be well-formed")
	}
}

func TestWellFormedCandidateID(t *testing.T) {
	cases := []struct {
		name string
		id   string
		want bool
	}{
		{name: "empty", id: "", want: false},
		{name: "malformed", id: "not-a-uuid", want: false},
		{name: "uuid", id: "7a9e3c52-1f05-4d2b-9c39-64c6f1a2b8d0", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vars := Variables{CandidateID: tc.id}
			if got := vars.WellFormedCandidateID(); got != tc.want {
				t.Fatalf("WellFormedCandidateID(%q) = %v, want %v", tc.id, got, tc.want)
			}
		})
	}
}
