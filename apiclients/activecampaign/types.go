package activecampaign

// Contact is an ActiveCampaign contact. The API returns ids as strings.
type Contact struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// contactRequest wraps a contact for create and sync calls.
type contactRequest struct {
	Contact Contact `json:"contact"`
}

// contactResponse is the body of single-contact responses.
type contactResponse struct {
	Contact Contact `json:"contact"`
}

// contactsResponse is the body of contact list responses. The meta total is
// the full match count across pages.
type contactsResponse struct {
	Contacts []Contact `json:"contacts"`
	Meta     struct {
		Total int `json:"total,string"`
	} `json:"meta"`
}
