package service

import (
	"errors"
	"testing"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

func TestFirstConflict(t *testing.T) {
	t.Parallel()

	claimed := map[string]string{
		model.AvailabilityUnit("av_whole").Key():  "g_whole",
		model.SplitUnit("av_split", "sp_a").Key(): "g_split",
		model.SplitUnit("av_two", "sp_x").Key():   "g_two_b",
		model.SplitUnit("av_two", "sp_y").Key():   "g_two_a",
	}

	tests := []struct {
		name      string
		refs      []model.UnitRef
		wantKey   string
		wantGroup string
	}{
		{
			name: "no overlap",
			refs: []model.UnitRef{model.AvailabilityUnit("av_free"), model.SplitUnit("av_split", "sp_b")},
		},
		{
			name:      "exact bare",
			refs:      []model.UnitRef{model.AvailabilityUnit("av_free"), model.AvailabilityUnit("av_whole")},
			wantKey:   model.AvailabilityUnit("av_whole").Key(),
			wantGroup: "g_whole",
		},
		{
			name:      "split of grouped availability",
			refs:      []model.UnitRef{model.SplitUnit("av_whole", "sp_new")},
			wantKey:   model.SplitUnit("av_whole", "sp_new").Key(),
			wantGroup: "g_whole",
		},
		{
			name:      "availability with grouped split",
			refs:      []model.UnitRef{model.AvailabilityUnit("av_split")},
			wantKey:   model.AvailabilityUnit("av_split").Key(),
			wantGroup: "g_split",
		},
		{
			name:      "lowest group id wins among splits",
			refs:      []model.UnitRef{model.AvailabilityUnit("av_two")},
			wantKey:   model.AvailabilityUnit("av_two").Key(),
			wantGroup: "g_two_a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := firstConflict(tt.refs, claimed)
			if tt.wantKey == "" {
				if got != nil {
					t.Fatalf("expected no conflict, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a conflict")
			}
			if got.UnitKey != tt.wantKey || got.GroupID != tt.wantGroup {
				t.Errorf("got %s in %s, want %s in %s", got.UnitKey, got.GroupID, tt.wantKey, tt.wantGroup)
			}
			if !errors.Is(got, ErrUnitAlreadyGrouped) {
				t.Error("conflict should unwrap to ErrUnitAlreadyGrouped")
			}
		})
	}
}
