package allocator

import (
	"context"
	"testing"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

type fakeSource struct {
	codes  []string
	locked []string
}

func (f *fakeSource) AcquirePrefixLock(_ context.Context, prefix string) error {
	f.locked = append(f.locked, prefix)
	return nil
}

func (f *fakeSource) ListCodesByPrefix(_ context.Context, _ string) ([]string, error) {
	return f.codes, nil
}

func TestNextCodeSequence(t *testing.T) {
	project := &domain.Project{ID: "p1", Name: "Engine", Prefix: "ENG"}

	source := &fakeSource{}
	code, err := NextCode(context.Background(), source, project)
	if err != nil {
		t.Fatal(err)
	}
	if code != "ENG-0001" {
		t.Fatalf("first code = %q", code)
	}

	source.codes = []string{"ENG-0001"}
	code, err = NextCode(context.Background(), source, project)
	if err != nil {
		t.Fatal(err)
	}
	if code != "ENG-0002" {
		t.Fatalf("second code = %q", code)
	}
	if len(source.locked) != 2 || source.locked[0] != "ENG" {
		t.Fatalf("prefix lock not taken: %v", source.locked)
	}
}

func TestNextCodeSkipsGaps(t *testing.T) {
	// deleted issues leave gaps that are never reused
	source := &fakeSource{codes: []string{"ENG-0001", "ENG-0003", "ENG-0007"}}
	code, err := NextCode(context.Background(), source, &domain.Project{ID: "p1", Prefix: "ENG"})
	if err != nil {
		t.Fatal(err)
	}
	if code != "ENG-0008" {
		t.Fatalf("got %q, want ENG-0008", code)
	}
}

func TestNextCodeIgnoresMalformed(t *testing.T) {
	source := &fakeSource{codes: []string{"ENG-0002", "ENG-abc", "ENG-", "ENGX-0009", "ENG--3"}}
	code, err := NextCode(context.Background(), source, &domain.Project{ID: "p1", Prefix: "ENG"})
	if err != nil {
		t.Fatal(err)
	}
	if code != "ENG-0003" {
		t.Fatalf("got %q, want ENG-0003", code)
	}
}

func TestPrefixFallsBackToProjectName(t *testing.T) {
	source := &fakeSource{}
	code, err := NextCode(context.Background(), source, &domain.Project{ID: "p1", Name: "frontend"})
	if err != nil {
		t.Fatal(err)
	}
	if code != "FR-0001" {
		t.Fatalf("got %q, want FR-0001", code)
	}
}

func TestFormatBeyondFourDigits(t *testing.T) {
	if got := Format("ENG", 10001); got != "ENG-10001" {
		t.Fatalf("got %q", got)
	}
	if got := Format("ENG", 42); got != "ENG-0042" {
		t.Fatalf("got %q", got)
	}
}

func TestParseSuffix(t *testing.T) {
	tests := []struct {
		code string
		want int
		ok   bool
	}{
		{"ENG-0001", 1, true},
		{"ENG-10001", 10001, true},
		{"ENG-abc", 0, false},
		{"OPS-0001", 0, false},
		{"ENG0001", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseSuffix("ENG", tc.code)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseSuffix(ENG, %q) = (%d, %v), want (%d, %v)", tc.code, got, ok, tc.want, tc.ok)
		}
	}
}
