package form

// Field references used by the registration form.
const (
	RefName    = "nome_completo"
	RefEmail   = "email"
	RefPhone   = "celular"
	RefCPF     = "cpf"
	RefSocial  = "linkedin"
	RefAddress = "endereco"
	RefBonus1  = "bonus1"
	RefBonus2  = "bonus2"
)

// Contact holds the identity fields of a submission.
type Contact struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DocumentID   string `json:"document_id"`
	SocialHandle string `json:"social_handle"`
}

// ExtractContact reads the contact fields. Values are taken as-is.
func ExtractContact(idx *Index) Contact {
	return Contact{
		Name:         idx.Lookup(RefName),
		Email:        idx.Lookup(RefEmail),
		Phone:        idx.Lookup(RefPhone),
		DocumentID:   idx.Lookup(RefCPF),
		SocialHandle: idx.Lookup(RefSocial),
	}
}

// ExtractBonus returns the first non-empty bonus selection.
func ExtractBonus(idx *Index) string {
	if v := idx.Lookup(RefBonus1); v != "" {
		return v
	}
	return idx.Lookup(RefBonus2)
}
