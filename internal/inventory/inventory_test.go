package inventory

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadResolvesHeaderAliases(t *testing.T) {
	csv := "Store No,IP Addr,GW,Lat,Lng\n" +
		"1001,10.0.0.1,10.0.0.254,32.7,-96.8\n" +
		"2002,10.0.0.2,,,\n"
	path := writeFile(t, "stores.csv", csv)

	eps, err := Load(path, NewGroupLookup(map[string]string{"1001": "Dallas"}), testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("endpoints = %d, want 2", len(eps))
	}

	first := eps[0]
	if first.ID != "1001" || first.IP != "10.0.0.1" || first.Gateway != "10.0.0.254" {
		t.Fatalf("first endpoint = %+v", first)
	}
	if first.Latitude == nil || *first.Latitude != 32.7 {
		t.Fatalf("latitude = %v, want 32.7", first.Latitude)
	}
	if first.GroupCode != "1001" || first.GroupName != "Dallas" {
		t.Fatalf("group = %s/%s, want 1001/Dallas", first.GroupCode, first.GroupName)
	}

	second := eps[1]
	if second.Latitude != nil || second.Gateway != "" {
		t.Fatalf("second endpoint = %+v, want empty optionals", second)
	}
	if second.GroupName != "Unknown DC 2002" {
		t.Fatalf("group name = %q, want placeholder", second.GroupName)
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	csv := "StoreNumber,IPAddress\n" +
		"1001,10.0.0.1\n" +
		",10.0.0.9\n" + // no identity
		"3003,\n" + // no address
		"4004,not an address\n" +
		"5005,10.0.0.5\n"
	path := writeFile(t, "stores.csv", csv)

	eps, err := Load(path, NewGroupLookup(nil), testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(eps) != 2 || eps[0].ID != "1001" || eps[1].ID != "5005" {
		t.Fatalf("endpoints = %+v, want 1001 and 5005", eps)
	}
}

func TestLoadBOMHeader(t *testing.T) {
	csv := "\ufeffStoreNumber,IPAddress\n1001,10.0.0.1\n"
	path := writeFile(t, "stores.csv", csv)

	eps, err := Load(path, NewGroupLookup(nil), testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(eps) != 1 || eps[0].ID != "1001" {
		t.Fatalf("endpoints = %+v, want one 1001", eps)
	}
}

func TestLoadZeroUsableRowsIsFatal(t *testing.T) {
	path := writeFile(t, "stores.csv", "StoreNumber,IPAddress\n,\n")
	_, err := Load(path, NewGroupLookup(nil), testLogger())
	if !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("error = %v, want ErrNoEndpoints", err)
	}
}

func TestLoadMissingRequiredHeaders(t *testing.T) {
	path := writeFile(t, "stores.csv", "Name,Location\nfoo,bar\n")
	if _, err := Load(path, NewGroupLookup(nil), testLogger()); err == nil {
		t.Fatal("expected error for missing required headers")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv"), NewGroupLookup(nil), testLogger()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadGroups(t *testing.T) {
	path := writeFile(t, "dc.csv", "City,DC\nDallas,1001\n,2002\n")
	groups := LoadGroups(path, testLogger())

	if got := groups.Name("1001"); got != "Dallas" {
		t.Fatalf("Name(1001) = %q, want Dallas", got)
	}
	if got := groups.Name("2002"); got != "DC 2002" {
		t.Fatalf("Name(2002) = %q, want DC 2002", got)
	}
	if got := groups.Name("9999"); got != "Unknown DC 9999" {
		t.Fatalf("Name(9999) = %q, want placeholder", got)
	}
	if got := groups.Name(""); got != "" {
		t.Fatalf("Name(\"\") = %q, want empty", got)
	}
}

func TestLoadGroupsMissingFileDegrades(t *testing.T) {
	groups := LoadGroups(filepath.Join(t.TempDir(), "absent.csv"), testLogger())
	if got := groups.Name("1001"); got != "Unknown DC 1001" {
		t.Fatalf("Name(1001) = %q, want placeholder", got)
	}
}
