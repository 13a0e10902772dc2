package elf

// Record is a registry entity labelled with its ELF code. Code is empty
// for inference inputs.
type Record struct {
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction"`
	Code         string `json:"code,omitempty"`
}

// Codes returns the labels of records in order.
func Codes(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Code
	}
	return out
}
