package form

// Index resolves answers by field reference. It is built once per
// submission and is read-only afterwards.
type Index struct {
	byRef  map[string]*Answer
	labels Labels
}

// NewIndex indexes answers by field ref. When a ref repeats, the first
// answer wins. Answers without a ref are ignored.
func NewIndex(answers []Answer, labels Labels) *Index {
	idx := &Index{byRef: make(map[string]*Answer, len(answers)), labels: labels}
	for i := range answers {
		ref := answers[i].Field.Ref
		if ref == "" {
			continue
		}
		if _, seen := idx.byRef[ref]; seen {
			continue
		}
		idx.byRef[ref] = &answers[i]
	}
	return idx
}

// Lookup returns the string form of the answer for ref, or "" when the
// ref is absent. It never fails.
func (idx *Index) Lookup(ref string) string {
	if idx == nil {
		return ""
	}
	a, ok := idx.byRef[ref]
	if !ok {
		return ""
	}
	return a.String(idx.labels)
}

// Has reports whether an answer exists for ref.
func (idx *Index) Has(ref string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.byRef[ref]
	return ok
}

// Len is the number of distinct refs answered.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byRef)
}
