package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Address is the flattened postal address of a submission.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	FullAddress  string `json:"full_address"`
}

// Alias lists are ordered; the first alias with a non-empty value wins.
var (
	streetAliases       = []string{"address_line1", "street", "endereco", "logradouro"}
	numberAliases       = []string{"address_number", "numero", "number"}
	complementAliases   = []string{"address_line2", "complemento", "complement", "apto"}
	neighborhoodAliases = []string{"neighborhood", "bairro", "district"}
	cityAliases         = []string{"city", "cidade", "localidade"}
	stateAliases        = []string{"state", "uf", "estado"}
	zipAliases          = []string{"postal_code", "zip_code", "cep"}
)

// ResolveAddress turns a raw address answer into an Address. The input may
// be plain text, JSON text or an already decoded mapping. It never fails:
// anything that is not a JSON object is kept verbatim in FullAddress.
func ResolveAddress(raw any) Address {
	text, ok := addressText(raw)
	if !ok || text == "" {
		return Address{}
	}
	if !gjson.Valid(text) {
		return Address{FullAddress: text}
	}
	obj := gjson.Parse(text)
	if !obj.IsObject() {
		return Address{FullAddress: text}
	}
	addr := Address{
		Street:       firstPresent(obj, streetAliases),
		Number:       firstPresent(obj, numberAliases),
		Complement:   firstPresent(obj, complementAliases),
		Neighborhood: firstPresent(obj, neighborhoodAliases),
		City:         firstPresent(obj, cityAliases),
		State:        firstPresent(obj, stateAliases),
		ZipCode:      firstPresent(obj, zipAliases),
	}
	addr.FullAddress = composeFullAddress(addr)
	return addr
}

// addressText normalizes the accepted input shapes to text. Structured
// input is serialized as JSON.
func addressText(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		return string(v), true
	case json.RawMessage:
		return string(v), true
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), true
		}
		if string(b) == "null" {
			return "", false
		}
		return string(b), true
	}
}

// firstPresent returns the first alias whose value is present and
// non-empty. Numbers keep their JSON spelling; null counts as absent.
func firstPresent(obj gjson.Result, aliases []string) string {
	for _, key := range aliases {
		v := obj.Get(gjson.Escape(key))
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func composeFullAddress(a Address) string {
	var b strings.Builder
	b.WriteString(a.Street)
	if a.Number != "" {
		b.WriteString(", ")
		b.WriteString(a.Number)
	}
	if a.Complement != "" {
		b.WriteString(", ")
		b.WriteString(a.Complement)
	}
	if a.Neighborhood != "" {
		b.WriteString(" - ")
		b.WriteString(a.Neighborhood)
	}
	return b.String()
}
