package main

import "testing"

func TestPostgresChecks(t *testing.T) {
	cases := []struct {
		brokers string
		want    []string
	}{
		{"", []string{"db"}},
		{" , ", []string{"db"}},
		{"kafka:9092", []string{"db", "kafka"}},
	}
	for _, tc := range cases {
		checks := postgresChecks(nil, tc.brokers)
		if len(checks) != len(tc.want) {
			t.Fatalf("brokers %q: expected %v, got %d checks", tc.brokers, tc.want, len(checks))
		}
		for i, name := range tc.want {
			if checks[i].Name != name || checks[i].Check == nil {
				t.Fatalf("brokers %q: unexpected check %d %+v", tc.brokers, i, checks[i])
			}
		}
	}
}
