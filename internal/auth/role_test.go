package auth

import "testing"

func TestResolve(t *testing.T) {
	resolver := Resolver{Team: PlainSecret("team-secret"), Admin: PlainSecret("admin-secret")}

	tests := []struct {
		name       string
		credential string
		want       Role
	}{
		{name: "admin", credential: "admin-secret", want: RoleAdmin},
		{name: "team", credential: "team-secret", want: RoleTeam},
		{name: "wrong", credential: "nope", want: RoleGuest},
		{name: "empty", credential: "", want: RoleGuest},
		{name: "prefix only", credential: "team-secre", want: RoleGuest},
		{name: "case sensitive", credential: "TEAM-SECRET", want: RoleGuest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Resolve(tt.credential); got != tt.want {
				t.Fatalf("Resolve(%q)=%v want %v", tt.credential, got, tt.want)
			}
		})
	}
}

func TestResolveAdminWinsOverTeam(t *testing.T) {
	resolver := Resolver{Team: PlainSecret("same-secret"), Admin: PlainSecret("same-secret")}
	if got := resolver.Resolve("same-secret"); got != RoleAdmin {
		t.Fatalf("expected admin, got %v", got)
	}
}

func TestResolveUnconfiguredNeverMatches(t *testing.T) {
	var resolver Resolver
	if got := resolver.Resolve("anything"); got != RoleGuest {
		t.Fatalf("expected guest, got %v", got)
	}
}

func TestRoleOrdering(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleTeam) {
		t.Fatal("admin should satisfy team threshold")
	}
	if RoleTeam.AtLeast(RoleAdmin) {
		t.Fatal("team should not satisfy admin threshold")
	}
	if RoleGuest.AtLeast(RoleTeam) {
		t.Fatal("guest should not satisfy team threshold")
	}
}

func TestParseRole(t *testing.T) {
	for _, role := range []Role{RoleGuest, RoleTeam, RoleAdmin} {
		got, err := ParseRole(role.String())
		if err != nil {
			t.Fatalf("parse %q: %v", role.String(), err)
		}
		if got != role {
			t.Fatalf("expected %v, got %v", role, got)
		}
	}
	if _, err := ParseRole("root"); err == nil {
		t.Fatal("expected invalid role error")
	}
}
