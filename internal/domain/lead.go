package domain

// LeadRow is one recipient record: column name to string value.
type LeadRow map[string]string

// LeadList is an ordered set of recipient rows parsed from an uploaded
// file. Columns preserves header order, which the email-field fallback
// resolution depends on (maps alone would shuffle it).
type LeadList struct {
	Columns []string  `json:"columns"`
	Rows    []LeadRow `json:"rows"`
}
