package silo

import "testing"

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, key string
		want         bool
	}{
		{"*", "anything", true},
		{"*", "with/slash", true},
		{"template_*", "template_aws", true},
		{"template_*", "task_aws", false},
		{"harvest-templates/*", "harvest-templates/aws/ec2", true},
		{"harvest-templates/*", "harvest-nodes/aws", false},
		{"exact", "exact", true},
		{"exact", "not-exact", false},
	}

	for _, c := range cases {
		if got := globMatch(c.pattern, c.key); got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.key, got, c.want)
		}
	}
}
