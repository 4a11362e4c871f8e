package rbac

import "testing"

func TestPolicyGrants(t *testing.T) {
	policy, err := NewPolicy()
	if err != nil {
		t.Fatalf("build policy: %v", err)
	}
	cases := []struct {
		role string
		perm Permission
		want bool
	}{
		{"steward", PermLogsCreate, true},
		{"steward", PermLogsView, true},
		{"steward", PermRadioProcess, false},
		{"steward", PermAccountsManage, false},
		{"supervisor", PermRadioProcess, true},
		{"supervisor", PermEventsManage, true},
		{"supervisor", PermAccountsManage, false},
		{"admin", PermAccountsManage, true},
		{"admin", PermAuditView, true},
		{"visitor", PermLogsView, false},
		{"", PermLogsView, false},
	}
	for _, tc := range cases {
		if got := policy.Allowed(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Allowed(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range Roles() {
		if !IsValidRole(role) {
			t.Fatalf("expected %q to be valid", role)
		}
	}
	if IsValidRole("root") {
		t.Fatal("expected unknown role to be rejected")
	}
}
