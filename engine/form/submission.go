package form

import "time"

// Response is the form_response object of a webhook delivery.
type Response struct {
	FormID      string   `json:"form_id"`
	Token       string   `json:"token,omitempty"`
	SubmittedAt string   `json:"submitted_at"`
	Answers     []Answer `json:"answers"`
}

// StatusNew is written to the status column of every new row.
const StatusNew = "Novo"

// RowWidth is the number of cells in a Row.
const RowWidth = 11

// Row is the fixed-order tabular record of a submission:
// name, email, phone, CPF, full address, city, state, zip, tracking,
// status, bonus.
type Row [RowWidth]string

// Cells returns the row as a slice.
func (r Row) Cells() []string {
	return r[:]
}

// Submission carries one form response through the pipeline.
type Submission struct {
	FormID        string
	SubmittedAt   string
	Answers       []Answer
	Contact       Contact
	Address       Address
	Bonus         string
	ProcessedName string

	labels    Labels
	index     *Index
	extracted bool
}

// NewSubmission wraps resp. A missing submission time defaults to now.
func NewSubmission(resp *Response, labels Labels, now func() time.Time) *Submission {
	if now == nil {
		now = time.Now
	}
	sub := &Submission{labels: labels}
	if resp != nil {
		sub.FormID = resp.FormID
		sub.SubmittedAt = resp.SubmittedAt
		sub.Answers = resp.Answers
	}
	if sub.SubmittedAt == "" {
		sub.SubmittedAt = now().UTC().Format(time.RFC3339)
	}
	return sub
}

// Index returns the answer index, building it on first use.
func (s *Submission) Index() *Index {
	if s.index == nil {
		s.index = NewIndex(s.Answers, s.labels)
	}
	return s.index
}

// Extract fills Contact, Address and Bonus. Running it again is a no-op.
func (s *Submission) Extract() {
	if s.extracted {
		return
	}
	idx := s.Index()
	s.Contact = ExtractContact(idx)
	s.Address = ResolveAddress(idx.Lookup(RefAddress))
	s.Bonus = ExtractBonus(idx)
	if s.ProcessedName == "" {
		s.ProcessedName = s.Contact.Name
	}
	s.extracted = true
}

// DisplayName prefers the normalized name over the raw one.
func (s *Submission) DisplayName() string {
	if s.ProcessedName != "" {
		return s.ProcessedName
	}
	return s.Contact.Name
}

// Assemble builds the output row, extracting first when needed.
func Assemble(s *Submission) Row {
	s.Extract()
	return Row{
		s.DisplayName(),
		s.Contact.Email,
		s.Contact.Phone,
		s.Contact.DocumentID,
		s.Address.FullAddress,
		s.Address.City,
		s.Address.State,
		s.Address.ZipCode,
		"",
		StatusNew,
		s.Bonus,
	}
}
