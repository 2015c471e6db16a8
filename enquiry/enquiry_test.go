package enquiry

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGenericMapDefaults(t *testing.T) {
	c := genericSource{}.Map(map[string]any{})
	c.normalize()
	if got, want := c.Rank, "4"; got != want {
		t.Errorf("rank got %s want %s", got, want)
	}
	if got, want := c.Stage, "enquiry"; got != want {
		t.Errorf("stage got %s want %s", got, want)
	}
	if d := time.Since(c.DateTime); d < 0 || d > 5*time.Second {
		t.Errorf("datetime %s not approximately now", c.DateTime)
	}
	if errs := c.Validate(); len(errs) == 0 {
		t.Error("expected validation errors for an empty payload")
	}
}

func TestGenericMapAliases(t *testing.T) {
	registry := NewRegistry()
	payload := map[string]any{
		"areaOfWork": "commercial",
		"channel":    "Phone Call",
		"rep":        "AB",
		"firstName":  "jane",
		"lastName":   "SMITH",
		"email":      " Jane.Smith@Example.COM ",
		"tel":        "07911123456",
		"message":    "needs advice on a contract dispute",
		"rank":       "9",
	}
	c, err := registry.Map(payload, "generic")
	if err != nil {
		t.Fatal(err)
	}
	want := Canonical{
		DateTime: c.DateTime,
		Stage:    "enquiry",
		Source:   "originalForward",
		Rank:     "4",
		Aow:      "commercial",
		Moc:      "Phone Call",
		Rep:      ptr("AB"),
		First:    "Jane",
		Last:     "Smith",
		Email:    "jane.smith@example.com",
		Phone:    ptr("+447911123456"),
		Notes:    ptr("needs advice on a contract dispute"),
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("unexpected mapping (-want +got):\n%s", diff)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"07911123456", "+447911123456"},
		{"07911 123 456", "+447911123456"},
		{"447911123456", "+447911123456"},
		{"+44 7911 123456", "+447911123456"},
		{"0207 946 0000", "0207 946 0000"}, // landline left alone
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := NormalizePhone(tt.phone); got != tt.want {
				t.Errorf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"jane", "Jane"},
		{"SMITH", "Smith"},
		{"mary anne", "Mary Anne"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleCase(tt.name); got != tt.want {
			t.Errorf("TitleCase(%q) got %s want %s", tt.name, got, tt.want)
		}
	}
}

func TestValidateRank(t *testing.T) {
	for rank, want := range map[string]string{
		"1": "1", "5": "5", "0": "4", "6": "4", "": "4", "high": "4",
	} {
		if got := ValidateRank(rank); got != want {
			t.Errorf("ValidateRank(%q) got %s want %s", rank, got, want)
		}
	}
}

func TestExtractGclid(t *testing.T) {
	got := ExtractGclid("https://example.com/contact?utm_source=google&gclid=Cj0KCQiA")
	if want := "Cj0KCQiA"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got := ExtractGclid("https://example.com/contact"); got != "" {
		t.Errorf("expected empty gclid, got %s", got)
	}
}

func TestCallBasedRequiresRep(t *testing.T) {
	registry := NewRegistry()
	payload := map[string]any{
		"aow":   "family",
		"first": "joe",
		"last":  "bloggs",
		"email": "joe@example.com",
	}
	_, err := registry.Map(payload, "phonecall")
	if err == nil {
		t.Fatal("expected a validation error for a call without a rep")
	}
	if !strings.Contains(err.Error(), "rep") {
		t.Errorf("error %q does not mention rep", err)
	}

	payload["takenBy"] = "CW"
	c, err := registry.Map(payload, "phonecall")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := *c.Rep, "CW"; got != want {
		t.Errorf("rep got %s want %s", got, want)
	}
	if got, want := c.Moc, "phone call"; got != want {
		t.Errorf("moc got %s want %s", got, want)
	}
}

func TestActiveCampaignSource(t *testing.T) {
	registry := NewRegistry()
	payload := map[string]any{
		"contact_first_name": "sam",
		"contact_last_name":  "jones",
		"contact_email":      "Sam@Example.com",
		"contact_id":         "1234",
		"aow":                "employment",
	}
	c, err := registry.Map(payload, "activecampaign")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.Email, "sam@example.com"; got != want {
		t.Errorf("email got %s want %s", got, want)
	}
	if got, want := *c.Acid, "1234"; got != want {
		t.Errorf("acid got %s want %s", got, want)
	}
	if got, want := c.Source, "activecampaign"; got != want {
		t.Errorf("source got %s want %s", got, want)
	}
}

func TestRegistryFallback(t *testing.T) {
	registry := NewRegistry()
	if got, want := registry.Get("unknown").Name(), "originalForward"; got != want {
		t.Errorf("fallback source got %s want %s", got, want)
	}
	if got, want := registry.Get("WebForm").Name(), "webform"; got != want {
		t.Errorf("source lookup got %s want %s", got, want)
	}
}

func ptr[T any](t T) *T {
	return &t
}
