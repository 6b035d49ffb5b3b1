package store

import "testing"

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleOwner, RoleCashier, true},
		{RoleOwner, RoleOwner, true},
		{RoleManager, RoleOwner, false},
		{RoleManager, RoleCashier, true},
		{RoleCashier, RoleManager, false},
		{Role("intern"), RoleCashier, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.min); got != tc.want {
			t.Fatalf("%s.AtLeast(%s) = %v, want %v", tc.role, tc.min, got, tc.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleManager, RoleCashier} {
		if !r.Valid() {
			t.Fatalf("%s should be valid", r)
		}
	}
	if Role("admin").Valid() {
		t.Fatal("unknown role accepted")
	}
}
