// internal/service/ads/infrastructure/rule/cel_trust_engine_test.go
package rule

import (
	"context"
	"testing"

	"souq/internal/service/ads/port"
)

func TestEvaluateTrustRule(t *testing.T) {
	adapter, err := NewCELTrustAdapter("owner_verified && account_age_days > 30 && active_ads < 50")
	if err != nil {
		t.Fatalf("NewCELTrustAdapter: %v", err)
	}

	cases := []struct {
		name  string
		facts port.SubmissionFacts
		want  bool
	}{
		{
			name:  "verified veteran seller",
			facts: port.SubmissionFacts{OwnerVerified: true, AccountAgeDays: 365, ActiveAds: 3},
			want:  true,
		},
		{
			name:  "unverified seller",
			facts: port.SubmissionFacts{OwnerVerified: false, AccountAgeDays: 365, ActiveAds: 3},
			want:  false,
		},
		{
			name:  "fresh account",
			facts: port.SubmissionFacts{OwnerVerified: true, AccountAgeDays: 2, ActiveAds: 0},
			want:  false,
		},
		{
			name:  "bulk poster",
			facts: port.SubmissionFacts{OwnerVerified: true, AccountAgeDays: 365, ActiveAds: 80},
			want:  false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := adapter.Evaluate(context.Background(), tc.facts)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOperatorRoleRule(t *testing.T) {
	adapter, err := NewCELTrustAdapter("owner_verified || owner_role == 'operator'")
	if err != nil {
		t.Fatalf("NewCELTrustAdapter: %v", err)
	}
	got, err := adapter.Evaluate(context.Background(), port.SubmissionFacts{OwnerRole: "operator"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error("operator role should be trusted")
	}
}

func TestRejectsInvalidExpressions(t *testing.T) {
	if _, err := NewCELTrustAdapter("owner_verified +"); err == nil {
		t.Error("syntactically broken rule must fail at startup")
	}
	if _, err := NewCELTrustAdapter("account_age_days + 1"); err == nil {
		t.Error("non-boolean rule must fail at startup")
	}
	if _, err := NewCELTrustAdapter("no_such_variable"); err == nil {
		t.Error("rule over unknown variables must fail at startup")
	}
}
