package router

import "testing"

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := []struct {
		object string
		want   string
	}{
		{object: "/admin/affiliates", want: "affiliates"},
		{object: "/admin/payouts/:id/status", want: "payouts"},
		{object: "/admin/authz/roles", want: "authz"},
		{object: "/admin/leaderboard/rebuild", want: "leaderboard"},
		{object: "/health", want: "health"},
		{object: "", want: "system"},
	}
	for _, tc := range cases {
		got := deriveAdminPermissionModule(tc.object)
		if got != tc.want {
			t.Fatalf("module for %q want %s got %s", tc.object, tc.want, got)
		}
	}
}
