package leads_test

import (
	"strings"
	"testing"

	"github.com/ignite/campaign-runner/internal/leads"
)

func TestParseCSVPreservesHeaderAndRowOrder(t *testing.T) {
	in := "first_name,Company Email,city\n" +
		"Ana,ana@example.com,Lisbon\n" +
		"Bo,bo@example.com,Oslo\n"

	list, err := leads.ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	wantCols := []string{"first_name", "Company Email", "city"}
	if len(list.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", list.Columns, wantCols)
	}
	for i, c := range wantCols {
		if list.Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, list.Columns[i], c)
		}
	}

	if len(list.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(list.Rows))
	}
	if list.Rows[0]["Company Email"] != "ana@example.com" {
		t.Errorf("row 0 email = %q", list.Rows[0]["Company Email"])
	}
	if list.Rows[1]["city"] != "Oslo" {
		t.Errorf("row 1 city = %q", list.Rows[1]["city"])
	}
}

func TestParseCSVShortAndLongRows(t *testing.T) {
	in := "email,name\n" +
		"a@x.com\n" +
		"b@x.com,Bea,extra-cell\n"

	list, err := leads.ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if got := list.Rows[0]["name"]; got != "" {
		t.Errorf("short row name = %q, want empty", got)
	}
	if got := list.Rows[1]["name"]; got != "Bea" {
		t.Errorf("long row name = %q, want Bea", got)
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	if _, err := leads.ParseCSV(strings.NewReader("")); err != leads.ErrEmptyFile {
		t.Fatalf("err = %v, want ErrEmptyFile", err)
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	list, err := leads.ParseCSV(strings.NewReader("email,name\n"))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(list.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(list.Rows))
	}
}

func TestParseCSVTrimsHeaderWhitespace(t *testing.T) {
	list, err := leads.ParseCSV(strings.NewReader(" email , name \nv@x.com,V\n"))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if list.Columns[0] != "email" || list.Columns[1] != "name" {
		t.Fatalf("columns = %v", list.Columns)
	}
	if list.Rows[0]["email"] != "v@x.com" {
		t.Errorf("email = %q", list.Rows[0]["email"])
	}
}
