package model

import "testing"

func TestTierForPoints_Boundaries(t *testing.T) {
	cases := []struct {
		points int64
		want   Tier
	}{
		{0, TierSilver},
		{999, TierSilver},
		{1000, TierGold},
		{2499, TierGold},
		{2500, TierPlatinum},
		{4999, TierPlatinum},
		{5000, TierDiamond},
		{125000, TierDiamond},
	}
	for _, c := range cases {
		if got := TierForPoints(c.points); got != c.want {
			t.Errorf("TierForPoints(%d) = %s; want %s", c.points, got, c.want)
		}
	}
}

func TestHigherTier_NeverDemotes(t *testing.T) {
	if got := HigherTier(TierPlatinum, TierGold); got != TierPlatinum {
		t.Fatalf("got %s; want Platinum", got)
	}
	if got := HigherTier(TierSilver, TierDiamond); got != TierDiamond {
		t.Fatalf("got %s; want Diamond", got)
	}
	if got := HigherTier(TierGold, TierGold); got != TierGold {
		t.Fatalf("got %s; want Gold", got)
	}
}
