package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestLocalPutGetRoundTrip(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	data := []byte(`{"run_id":"abc"}`)
	if err := store.Put(ctx, "reports/run_abc.json", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "reports/run_abc.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get returned %q, want %q", got, data)
	}
}

func TestLocalPutOverwrites(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	if err := store.Put(ctx, "obj", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(ctx, "obj", []byte("second")); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "obj")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("got %q after overwrite", got)
	}
}

func TestLocalGetMissing(t *testing.T) {
	store := newLocal(t)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("got %v, want ErrObjectNotFound", err)
	}
}

func TestLocalExists(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "obj")
	if err != nil || ok {
		t.Errorf("Exists before Put: %v %v", ok, err)
	}

	if err := store.Put(ctx, "obj", []byte("x")); err != nil {
		t.Fatal(err)
	}
	ok, err = store.Exists(ctx, "obj")
	if err != nil || !ok {
		t.Errorf("Exists after Put: %v %v", ok, err)
	}
}

func TestLocalDelete(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	if err := store.Put(ctx, "obj", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "obj"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, _ := store.Exists(ctx, "obj")
	if ok {
		t.Error("object still exists after Delete")
	}

	// Deleting an absent object is not an error.
	if err := store.Delete(ctx, "obj"); err != nil {
		t.Errorf("Delete of absent object: %v", err)
	}
}

func TestLocalList(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	for _, path := range []string{"reports/a.json", "reports/b.json", "other/c.json"} {
		if err := store.Put(ctx, path, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	objects, err := store.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 2 {
		t.Errorf("List returned %v, want the two report objects", objects)
	}
}

func TestLocalCancelledContext(t *testing.T) {
	store := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "obj", []byte("x")); err == nil {
		t.Error("Put with cancelled context should fail")
	}
	if _, err := store.Get(ctx, "obj"); err == nil {
		t.Error("Get with cancelled context should fail")
	}
}
