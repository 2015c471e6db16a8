package enquiry

import (
	"fmt"
	"strings"
)

// Source maps a raw lead payload from one inbound source into the canonical
// enquiry shape. Adding a lead source means implementing this interface and
// registering it; the Map result is normalized and validated by the caller.
type Source interface {
	// Name is the source tag, used both as the registry key and as the
	// source value recorded on mapped enquiries.
	Name() string
	Map(payload map[string]any) Canonical
}

// Registry resolves source tags to their adapters.
type Registry struct {
	sources map[string]Source
	generic Source
}

// NewRegistry returns a registry with the built-in source adapters
// registered.
func NewRegistry() *Registry {
	r := &Registry{
		sources: map[string]Source{},
		generic: genericSource{},
	}
	r.Register(r.generic)
	r.Register(webFormSource{})
	r.Register(phoneCallSource{})
	r.Register(activeCampaignSource{})
	return r
}

// Register adds a source adapter keyed by its name.
func (r *Registry) Register(s Source) {
	r.sources[strings.ToLower(s.Name())] = s
}

// Get resolves a source tag to its adapter, falling back to the generic
// adapter for unknown or empty tags.
func (r *Registry) Get(sourceType string) Source {
	if s, ok := r.sources[strings.ToLower(sourceType)]; ok {
		return s
	}
	return r.generic
}

// Names lists the registered source tags.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}

// firstString returns the first non-empty value among the payload keys,
// stringifying non-string scalars.
func firstString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return s
			}
		default:
			return fmt.Sprint(s)
		}
	}
	return ""
}

// optional converts an empty string to a nil pointer.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// genericSource tries a cascade of common field name aliases for each
// column. It is the fallback for unknown source tags and the tag recorded
// for direct forwards.
type genericSource struct{}

func (g genericSource) Name() string { return "originalForward" }

func (g genericSource) Map(payload map[string]any) Canonical {
	c := Canonical{
		DateTime: Now(),
		Stage:    "enquiry",
		Source:   g.Name(),
		Rank:     "4",
		Aow:      firstString(payload, "aow", "areaOfWork", "practice", "service"),
		Moc:      firstString(payload, "moc", "methodOfContact", "channel"),
		First:    firstString(payload, "first", "firstName", "first_name", "fname"),
		Last:     firstString(payload, "last", "lastName", "last_name", "lname"),
		Email:    firstString(payload, "email", "emailAddress"),

		Tow:             optional(firstString(payload, "tow", "typeOfWork")),
		Phone:           optional(firstString(payload, "phone", "phoneNumber", "tel")),
		Value:           optional(firstString(payload, "value", "amount", "estimatedValue")),
		Notes:           optional(firstString(payload, "notes", "message", "details")),
		Rating:          optional(firstString(payload, "rating")),
		Acid:            optional(firstString(payload, "acid", "activecampaignId", "contactId")),
		CardID:          optional(firstString(payload, "card_id", "cardId")),
		URL:             optional(firstString(payload, "url", "referralUrl")),
		ContactReferrer: optional(firstString(payload, "contact_referrer", "referredBy")),
		CompanyReferrer: optional(firstString(payload, "company_referrer", "referringCompany")),
	}
	if c.callBased() {
		c.Rep = optional(firstString(payload, "rep", "representative"))
	}
	c.Gclid = optional(firstString(payload, "gclid"))
	if c.Gclid == nil && c.URL != nil {
		c.Gclid = optional(ExtractGclid(*c.URL))
	}
	return c
}

// webFormSource maps submissions from the firm's website enquiry form. The
// form posts the generic field names but carries no method of contact, and
// may carry the submission time of the form.
type webFormSource struct{}

func (w webFormSource) Name() string { return "webform" }

func (w webFormSource) Map(payload map[string]any) Canonical {
	c := genericSource{}.Map(payload)
	c.Source = w.Name()
	if c.Moc == "" {
		c.Moc = "web form"
	}
	if submitted := firstString(payload, "submittedAt", "submitted_at"); submitted != "" {
		c.DateTime = ParseDateTime(submitted)
	}
	return c
}

// phoneCallSource maps enquiries logged by reception from inbound calls.
// The method of contact is fixed so a representative is always required.
type phoneCallSource struct{}

func (p phoneCallSource) Name() string { return "phonecall" }

func (p phoneCallSource) Map(payload map[string]any) Canonical {
	c := genericSource{}.Map(payload)
	c.Source = p.Name()
	c.Moc = "phone call"
	c.Rep = optional(firstString(payload, "rep", "representative", "takenBy"))
	return c
}

// activeCampaignSource maps contact payloads forwarded from ActiveCampaign
// automations, which use their own field names and carry the contact id.
type activeCampaignSource struct{}

func (a activeCampaignSource) Name() string { return "activecampaign" }

func (a activeCampaignSource) Map(payload map[string]any) Canonical {
	c := genericSource{}.Map(payload)
	c.Source = a.Name()
	if c.First == "" {
		c.First = firstString(payload, "contact_first_name")
	}
	if c.Last == "" {
		c.Last = firstString(payload, "contact_last_name")
	}
	if c.Email == "" {
		c.Email = firstString(payload, "contact_email")
	}
	if c.Phone == nil {
		c.Phone = optional(firstString(payload, "contact_phone"))
	}
	if c.Acid == nil {
		c.Acid = optional(firstString(payload, "contact_id"))
	}
	if c.Moc == "" {
		c.Moc = "automation"
	}
	return c
}
