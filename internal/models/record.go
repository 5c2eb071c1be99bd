package models

// Record is one document of the record store. It is a closed union over
// *Transaction, *InstallmentGroup and *Malformed, decided once when the
// store decodes the persisted "type" field.
type Record interface {
	RecordID() string
	// RecordDate returns the calendar date the record is anchored to:
	// the transaction date or the group start date.
	RecordDate() string
	isRecord()
}

// Malformed stands in for a stored document that could not be decoded.
// It has no usable date, so the corrupted-record cleanup removes it.
type Malformed struct {
	ID     string
	Reason string
}

func (m *Malformed) RecordID() string   { return m.ID }
func (m *Malformed) RecordDate() string { return "" }
func (m *Malformed) isRecord()          {}

// IsGroupType reports whether a persisted type tag denotes an installment group.
func IsGroupType(tag string) bool {
	return tag == RecordTypeInstallmentGroup
}

// Clone returns a deep copy of r so stores never share memory with callers.
func Clone(r Record) Record {
	switch v := r.(type) {
	case *Transaction:
		c := *v
		return &c
	case *InstallmentGroup:
		c := *v
		if v.CompletedAt != nil {
			t := *v.CompletedAt
			c.CompletedAt = &t
		}
		if v.LastProcessedDate != nil {
			t := *v.LastProcessedDate
			c.LastProcessedDate = &t
		}
		return &c
	case *Malformed:
		c := *v
		return &c
	default:
		return r
	}
}

// Groups filters the installment groups out of a record list.
func Groups(records []Record) []InstallmentGroup {
	var groups []InstallmentGroup
	for _, r := range records {
		if g, ok := r.(*InstallmentGroup); ok {
			groups = append(groups, *g)
		}
	}
	return groups
}

// Transactions filters the transactions out of a record list.
func Transactions(records []Record) []Transaction {
	var txs []Transaction
	for _, r := range records {
		if t, ok := r.(*Transaction); ok {
			txs = append(txs, *t)
		}
	}
	return txs
}
