package component

import (
	"testing"

	"lumen/internal/ecs"
)

func checkPacked(t *testing.T, c *Children) {
	t.Helper()
	for i := 0; i < MaxChildren; i++ {
		if i < c.Count && c.IDs[i] == ecs.NullEntity {
			t.Fatalf("hole at %d below count %d", i, c.Count)
		}
		if i >= c.Count && c.IDs[i] != ecs.NullEntity {
			t.Fatalf("slot %d above count %d holds %d", i, c.Count, c.IDs[i])
		}
	}
}

func TestChildrenPacking(t *testing.T) {
	var c Children
	c.Reset()
	for id := ecs.EntityID(1); id <= 5; id++ {
		c.Append(id)
	}
	checkPacked(t, &c)

	cases := []struct {
		remove ecs.EntityID
		want   []ecs.EntityID
	}{
		{3, []ecs.EntityID{1, 2, 4, 5}},
		{1, []ecs.EntityID{2, 4, 5}},
		{5, []ecs.EntityID{2, 4}},
	}
	for _, tc := range cases {
		if !c.Remove(tc.remove) {
			t.Fatalf("expected %d to be removed", tc.remove)
		}
		checkPacked(t, &c)
		got := c.Slice()
		if len(got) != len(tc.want) {
			t.Fatalf("after removing %d: expected %v, got %v", tc.remove, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("after removing %d: expected %v, got %v", tc.remove, tc.want, got)
			}
		}
	}
	if c.Remove(42) {
		t.Fatal("removing an absent child must report false")
	}
}

func TestChildrenFull(t *testing.T) {
	var c Children
	c.Reset()
	for i := 0; i < MaxChildren; i++ {
		if !c.Append(ecs.EntityID(i)) {
			t.Fatalf("append %d failed early", i)
		}
	}
	if c.Append(99) {
		t.Fatal("expected the eleventh child to be refused")
	}
	checkPacked(t, &c)
}

func TestKindNames(t *testing.T) {
	if Name(KindSkeletalAnimation) != "skeletal_animation" {
		t.Fatalf("unexpected name %q", Name(KindSkeletalAnimation))
	}
	if (Children{}).Kind() != KindChildren || (Transform{}).Kind() != KindTransform {
		t.Fatal("component reports the wrong kind")
	}
	if NumKinds > ecs.MaxKinds {
		t.Fatalf("%d kinds do not fit in a mask", NumKinds)
	}
}
