package rules

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestListRules_SortedByID(t *testing.T) {
	rules, err := ListRules()
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}

	if len(rules) != 8 {
		t.Fatalf("expected 8 rules, got %d", len(rules))
	}

	for i := 1; i < len(rules); i++ {
		if rules[i].ID < rules[i-1].ID {
			t.Errorf("rules not sorted: %s comes after %s", rules[i].ID, rules[i-1].ID)
		}
	}
}

func TestListRules_ContainsRLC001(t *testing.T) {
	rules, err := ListRules()
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}

	found := false
	for _, r := range rules {
		if r.ID == "RLC001" {
			found = true
			if r.Name != "unresolved-interpolation" {
				t.Errorf("RLC001 name = %q, want %q", r.Name, "unresolved-interpolation")
			}
			if r.Description == "" {
				t.Error("RLC001 description is empty")
			}
			break
		}
	}
	if !found {
		t.Error("RLC001 not found in rule list")
	}
}

func TestLookupRule_ByID(t *testing.T) {
	content, err := LookupRule("RLC004")
	if err != nil {
		t.Fatalf("LookupRule(RLC004): %v", err)
	}
	if !strings.Contains(content, "lifecycle-order") {
		t.Error("expected RLC004 content to contain 'lifecycle-order'")
	}
}

func TestLookupRule_ByName(t *testing.T) {
	content, err := LookupRule("job-timeout")
	if err != nil {
		t.Fatalf("LookupRule(job-timeout): %v", err)
	}
	if !strings.Contains(content, "RLC008") {
		t.Error("expected job-timeout content to contain 'RLC008'")
	}
}

func TestLookupRule_CaseInsensitiveID(t *testing.T) {
	content, err := LookupRule("rlc001")
	if err != nil {
		t.Fatalf("LookupRule(rlc001): %v", err)
	}
	if !strings.Contains(content, "RLC001") {
		t.Error("expected lowercase lookup to find RLC001")
	}
}

func TestLookupRule_Unknown(t *testing.T) {
	_, err := LookupRule("RLCXXX")
	if err == nil {
		t.Fatal("expected error for unknown rule")
	}
	if !strings.Contains(err.Error(), "unknown rule") {
		t.Errorf("error = %q, want it to contain 'unknown rule'", err.Error())
	}
}

func TestListRulesFromFS_SkipsBadFrontMatter(t *testing.T) {
	fsys := fstest.MapFS{
		"RLC900/README.md": &fstest.MapFile{
			Data: []byte("---\nid: RLC900\nname: good-rule\ndescription: A good rule.\n---\n# RLC900\n"),
		},
		"RLC901/README.md": &fstest.MapFile{
			Data: []byte("no front matter here\n"),
		},
	}

	rules, err := listRulesFromFS(fsys)
	if err != nil {
		t.Fatalf("listRulesFromFS: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].ID != "RLC900" {
		t.Errorf("rule ID = %q, want RLC900", rules[0].ID)
	}
}

func TestLookupRuleFromFS_NotFound(t *testing.T) {
	fsys := fstest.MapFS{
		"RLC900/README.md": &fstest.MapFile{
			Data: []byte("---\nid: RLC900\nname: test-rule\ndescription: Test.\n---\n# Content\n"),
		},
	}

	if _, err := lookupRuleFromFS(fsys, "RLC999"); err == nil {
		t.Fatal("expected error for unknown rule")
	}
}
