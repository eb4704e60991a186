package sheets

import (
	"context"
	"reflect"
	"testing"
)

func TestToValues(t *testing.T) {
	grid := [][]string{{"Rank", "Name"}, {"1", "Ada"}}
	want := [][]interface{}{{"Rank", "Name"}, {"1", "Ada"}}
	if got := toValues(grid); !reflect.DeepEqual(got, want) {
		t.Fatalf("toValues = %v, want %v", got, want)
	}
	if got := toValues(nil); len(got) != 0 {
		t.Fatalf("toValues(nil) = %v", got)
	}
}

func TestHasSheet(t *testing.T) {
	if !hasSheet([]string{"Sheet1", "Leaderboard"}, SheetLeaderboard) {
		t.Fatal("existing sheet not found")
	}
	if hasSheet([]string{"leaderboard"}, SheetLeaderboard) {
		t.Fatal("sheet titles are case sensitive")
	}
}

func TestNewMissingCredentials(t *testing.T) {
	if _, err := New(context.Background(), t.TempDir()+"/missing.json", "sheet-id"); err == nil {
		t.Fatal("expected error for missing service account file")
	}
}
