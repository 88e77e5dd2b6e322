package model

import "testing"

func TestMergeSettings(t *testing.T) {
	base := SiteSettings{SiteName: "GlamFlow", HeroTitle: "Welcome", BookingOpen: true}

	cases := []struct {
		name        string
		raw         string
		wantName    string
		wantHero    string
		wantAccepts bool
	}{
		{"copy only", `{"siteName":"Glam Studio","contactPhone":"0917"}`, "Glam Studio", "Welcome", true},
		{"explicitly closed", `{"bookingOpen":false}`, "GlamFlow", "Welcome", false},
		{"maintenance", `{"maintenanceMode":true}`, "GlamFlow", "Welcome", false},
		{"empty document", `{}`, "GlamFlow", "Welcome", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MergeSettings(base, []byte(tc.raw))
			if err != nil {
				t.Fatalf("merge: %v", err)
			}
			if got.SiteName != tc.wantName || got.HeroTitle != tc.wantHero || got.AcceptsBookings() != tc.wantAccepts {
				t.Fatalf("unexpected settings %+v", got)
			}
		})
	}

	if _, err := MergeSettings(base, []byte(`{"siteName":`)); err == nil {
		t.Fatal("expected decode error")
	}
	if !base.BookingOpen || base.SiteName != "GlamFlow" {
		t.Fatal("base was modified")
	}
}
