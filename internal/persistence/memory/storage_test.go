package memory_test

import (
	"context"
	"testing"

	"github.com/example/classroom-booking/internal/persistence"
	"github.com/example/classroom-booking/internal/persistence/memory"
	"github.com/example/classroom-booking/internal/testfixtures"
)

func TestStorageContract(t *testing.T) {
	testfixtures.RunStoreContract(t, func(t *testing.T) persistence.Store {
		return memory.New()
	})
}

func TestStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	classroom := testfixtures.NewClassroom(testfixtures.WithClassroomID("c1"), testfixtures.WithClassroomEquipment("Projector"))
	if err := store.CreateClassroom(ctx, classroom); err != nil {
		t.Fatalf("CreateClassroom failed: %v", err)
	}
	classroom.Equipment[0] = "Changed"

	fetched, err := store.GetClassroom(ctx, "c1")
	if err != nil {
		t.Fatalf("GetClassroom failed: %v", err)
	}
	fetched.Equipment[0] = "Mutated"

	again, err := store.GetClassroom(ctx, "c1")
	if err != nil {
		t.Fatalf("GetClassroom failed: %v", err)
	}
	if again.Equipment[0] != "Projector" {
		t.Fatalf("stored classroom was mutated: %v", again.Equipment)
	}
}
