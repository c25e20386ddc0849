package db

import (
	"context"
	"fmt"
	"os"
	"testing"
)

// TestLiveDatabase opens the real alarm database and lists active alarms.
// Skipped if the database doesn't exist.
func TestLiveDatabase(t *testing.T) {
	dbPath := DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("database not found at", dbPath)
	}

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	alarms, err := store.ActiveAlarms(context.Background())
	if err != nil {
		t.Fatalf("ActiveAlarms: %v", err)
	}
	fmt.Printf("Active alarms: %d\n", len(alarms))
	for _, a := range alarms {
		fmt.Printf("  #%d %s (snoozed %d times)\n", a.ID, a.Label(), a.SnoozeCount)
	}

	theme, ok, err := store.Setting(context.Background(), "theme")
	if err != nil {
		t.Fatalf("Setting: %v", err)
	}
	if ok {
		fmt.Printf("Theme: %s\n", theme)
	}
}
