package state

import (
	"sync"
	"testing"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

func seedMirror() *Mirror {
	m := NewMirror()
	m.Update(func(d *Data) {
		d.Users["u1"] = &model.User{ID: "u1", DisplayName: "Ada", Role: model.RoleAdmin}
		d.Users["u2"] = &model.User{ID: "u2", DisplayName: "Ben", Role: model.RoleViewer}
		d.Instances["i1"] = &model.Instance{
			ID:       "i1",
			MasterID: "m1",
			Title:    "Launch checklist",
			Sections: []*model.Section{
				{
					ID:    "s1",
					Tasks: []*model.Task{{ID: "t1", Title: "Fuel"}, {ID: "t2", Title: "Guidance"}},
				},
			},
		}
	})
	return m
}

func TestReadsReturnCopies(t *testing.T) {
	m := seedMirror()

	u := m.User("u1")
	u.DisplayName = "changed"

	if got := m.User("u1").DisplayName; got != "Ada" {
		t.Errorf("mutation through a read copy leaked into the mirror: %q", got)
	}

	in := m.Instance("i1")
	in.FindTask("t1").Title = "changed"
	if got := m.Instance("i1").FindTask("t1").Title; got != "Fuel" {
		t.Errorf("instance copy not deep: %q", got)
	}
}

func TestTaskLookupAcrossInstances(t *testing.T) {
	m := seedMirror()
	m.Update(func(d *Data) {
		d.Instances["i2"] = &model.Instance{
			ID:       "i2",
			Sections: []*model.Section{{ID: "s1", Tasks: []*model.Task{{ID: "t9"}}}},
		}
	})

	task, instanceID := m.Task("t9")
	if task == nil || instanceID != "i2" {
		t.Fatalf("Task(t9) = %v, %q, want task in i2", task, instanceID)
	}

	if task, id := m.Task("missing"); task != nil || id != "" {
		t.Errorf("Task(missing) = %v, %q, want nil", task, id)
	}
}

func TestPruneStaleReferences(t *testing.T) {
	m := seedMirror()
	m.Update(func(d *Data) {
		d.Users["u1"].ActiveFocus = &model.FocusRef{InstanceID: "i1", TaskID: "gone"}
		d.Users["u2"].ActiveFocus = &model.FocusRef{InstanceID: "i1", TaskID: "t1"}
		d.Users["u2"].ActionSet = []model.ActionSetItem{
			{InstanceID: "i1", TaskID: "t1"},
			{InstanceID: "i1", TaskID: "gone"},
			{InstanceID: "i1", TaskID: "t2"},
		}
	})

	var pruned int
	m.Update(func(d *Data) { pruned = d.PruneStaleReferences() })

	if pruned != 2 {
		t.Errorf("pruned %d references, want 2", pruned)
	}
	if m.User("u1").ActiveFocus != nil {
		t.Error("stale focus not cleared")
	}
	if m.User("u2").ActiveFocus == nil {
		t.Error("valid focus was cleared")
	}

	set := m.User("u2").ActionSet
	if len(set) != 2 || set[0].TaskID != "t1" || set[1].TaskID != "t2" {
		t.Errorf("action set after prune = %v, want [t1 t2] in order", set)
	}
}

func TestLiveViewersComputedAtReadTime(t *testing.T) {
	m := seedMirror()
	now := time.Now()
	m.Update(func(d *Data) {
		d.Instances["i1"].ActiveUsers = map[string]model.PresenceEntry{
			"u1": {TaskID: "t1", UserName: "Ada", LastSeenAt: now.Add(-10 * time.Second)},
			"u2": {TaskID: "t1", UserName: "Ben", LastSeenAt: now.Add(-2 * time.Minute)},
			"u3": {TaskID: "t2", UserName: "Cal", LastSeenAt: now},
		}
	})

	var viewers []string
	m.Read(func(d *Data) {
		viewers = d.LiveViewers("i1", "t1", now, model.DefaultLivenessWindow)
	})

	if len(viewers) != 1 || viewers[0] != "u1" {
		t.Errorf("LiveViewers = %v, want [u1]", viewers)
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	m := seedMirror()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update(func(d *Data) {
				d.Users["u1"].ActionSet = append(d.Users["u1"].ActionSet,
					model.ActionSetItem{InstanceID: "i1", TaskID: "t1"})
			})
		}()
	}
	wg.Wait()

	if got := len(m.User("u1").ActionSet); got != 50 {
		t.Errorf("action set length = %d, want 50 (lost updates)", got)
	}
}
